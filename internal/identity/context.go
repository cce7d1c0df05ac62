package identity

import "context"

type ctxKey string

const actorKey ctxKey = "docpoint.actor"

// WithActor stores the verified actor in context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor if present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return Actor{}, false
	}
	actor, ok := val.(Actor)
	return actor, ok && actor.SubjectID != "" && actor.Role.Valid()
}
