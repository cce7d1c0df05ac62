package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/docpoint/platform/internal/config"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same credential wiring. Static credentials are only injected when both
// halves of the pair are configured; otherwise the default chain applies.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

// NewDynamoDBClient builds the platform DynamoDB client. AWS_ENDPOINT_OVERRIDE
// points it at LocalStack in local and CI runs.
func NewDynamoDBClient(awsCfg aws.Config, cfg *appconfig.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.AWSEndpointOverride != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointOverride)
		}
	})
}

// NewSQSClient builds the platform SQS client under the same endpoint rules.
func NewSQSClient(awsCfg aws.Config, cfg *appconfig.Config) *sqs.Client {
	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWSEndpointOverride != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointOverride)
		}
	})
}
