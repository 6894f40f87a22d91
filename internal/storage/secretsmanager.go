package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI defines the Secrets Manager operations used by the resolver.
type SecretsManagerAPI interface {
	// GetSecretValue retrieves a secret value.
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretResolver reads credentials from AWS Secrets Manager.
type SecretResolver struct {
	// client is the Secrets Manager API client.
	client SecretsManagerAPI
}

// NewSecretResolver creates a new Secrets Manager-backed resolver.
func NewSecretResolver(client SecretsManagerAPI) (*SecretResolver, error) {
	if client == nil {
		return nil, errors.New("secrets manager client is required")
	}

	return &SecretResolver{client: client}, nil
}

// SecretValue returns the trimmed string value of the secret with the given ID or ARN.
func (r *SecretResolver) SecretValue(ctx context.Context, secretID string) (string, error) {
	if secretID == "" {
		return "", errors.New("secret ID is required")
	}

	output, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("getting secret from Secrets Manager: %w", err)
	}

	if output.SecretString == nil {
		return "", errors.New("secret has no string value")
	}

	value := strings.TrimSpace(*output.SecretString)
	if value == "" {
		return "", errors.New("secret value is empty")
	}

	return value, nil
}
