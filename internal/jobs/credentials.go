package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"rentora-utils/pkg/models"
)

// ErrCredentialsNotFound means the credential service has no login pair for
// the property; the job is never created in that case.
var ErrCredentialsNotFound = errors.New("credentials not found for property")

// CredentialService hands out decrypted portal credentials for a property.
// The real decryption service lives outside this codebase; implementations
// here exist for local runs and tests. Credentials are read-only for the
// duration of one run and must never be cached or logged.
type CredentialService interface {
	GetCredentials(ctx context.Context, propertyID string) (models.Credentials, error)
}

// StaticCredentialService serves credentials from a fixed map
type StaticCredentialService struct {
	creds map[string]models.Credentials
}

// NewStaticCredentialService creates a credential service over a fixed map
func NewStaticCredentialService(creds map[string]models.Credentials) *StaticCredentialService {
	if creds == nil {
		creds = make(map[string]models.Credentials)
	}
	return &StaticCredentialService{creds: creds}
}

// NewEnvCredentialService reads the PORTAL_CREDENTIALS environment variable,
// a JSON object keyed by property id, e.g.
// {"prop-1": {"username": "u", "password": "p"}}.
func NewEnvCredentialService() *StaticCredentialService {
	creds := make(map[string]models.Credentials)

	if raw := os.Getenv("PORTAL_CREDENTIALS"); raw != "" {
		// A malformed value behaves like an empty credential set
		_ = json.Unmarshal([]byte(raw), &creds)
	}

	return NewStaticCredentialService(creds)
}

// GetCredentials returns the login pair for the property
func (s *StaticCredentialService) GetCredentials(ctx context.Context, propertyID string) (models.Credentials, error) {
	creds, exists := s.creds[propertyID]
	if !exists {
		return models.Credentials{}, ErrCredentialsNotFound
	}
	return creds, nil
}
