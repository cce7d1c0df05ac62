package doctors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/slots"
	"github.com/docpoint/platform/pkg/logging"
)

func newHandlerFixture(t *testing.T) (*Handler, *InMemoryRepository, *slots.InMemoryLedger, string) {
	t.Helper()
	repo := NewInMemoryRepository()
	ledger := slots.NewInMemoryLedger()
	doc, err := repo.Create(context.Background(), &CreateDoctorRequest{
		Name:       "Dr. Richard James",
		Email:      "richard@example.com",
		Speciality: "General physician",
		Degree:     "MBBS",
		Fees:       50,
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return NewHandler(repo, ledger, logging.New("error")), repo, ledger, doc.ID
}

func doctorRequest(method, path string, body string, actor *identity.Actor, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	ctx := req.Context()
	if actor != nil {
		ctx = identity.WithActor(ctx, *actor)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func TestHandlerBookedSlots(t *testing.T) {
	h, _, ledger, docID := newHandlerFixture(t)
	if err := ledger.Reserve(context.Background(), docID, "25_12_2026", "10:00 AM"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	rec := httptest.NewRecorder()
	h.BookedSlots(rec, doctorRequest(http.MethodGet, "/doctors/"+docID+"/slots", "", nil,
		map[string]string{"doctorID": docID}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		SlotsBooked map[string][]string `json:"slots_booked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if times := body.SlotsBooked["25_12_2026"]; len(times) != 1 || times[0] != "10:00 AM" {
		t.Fatalf("slots_booked = %v", body.SlotsBooked)
	}
}

func TestHandlerBookedSlotsUnknownDoctor(t *testing.T) {
	h, _, _, _ := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.BookedSlots(rec, doctorRequest(http.MethodGet, "/doctors/missing/slots", "", nil,
		map[string]string{"doctorID": "missing"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerSetAvailabilityOwnership(t *testing.T) {
	h, repo, _, docID := newHandlerFixture(t)

	other := identity.Actor{Role: identity.RoleDoctor, SubjectID: "someone-else"}
	rec := httptest.NewRecorder()
	h.SetAvailability(rec, doctorRequest(http.MethodPost, "/doctors/"+docID+"/availability",
		`{"available":false}`, &other, map[string]string{"doctorID": docID}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other doctor status = %d, want 403", rec.Code)
	}

	owner := identity.Actor{Role: identity.RoleDoctor, SubjectID: docID}
	rec = httptest.NewRecorder()
	h.SetAvailability(rec, doctorRequest(http.MethodPost, "/doctors/"+docID+"/availability",
		`{"available":false}`, &owner, map[string]string{"doctorID": docID}))
	if rec.Code != http.StatusOK {
		t.Fatalf("own doctor status = %d: %s", rec.Code, rec.Body.String())
	}

	doc, err := repo.GetByID(context.Background(), docID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Available {
		t.Fatal("availability not persisted")
	}
}
