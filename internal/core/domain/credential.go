package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrCredentialNameRequired = errors.New("credential name is required")
	ErrCredentialKeyRequired  = errors.New("credential API key is required")
	ErrInvalidProvider        = errors.New("unsupported credential provider")
)

// =============================================================================
// Provider
// =============================================================================

// Provider identifies which LLM backend a credential belongs to.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	// ProviderAzure covers Azure-hosted OpenAI-compatible endpoints.
	ProviderAzure Provider = "azure"
)

// IsValid checks if the provider is supported.
func (p Provider) IsValid() bool {
	return p == ProviderOpenAI || p == ProviderAzure
}

// =============================================================================
// Credential
// =============================================================================

// Credential is a tenant-supplied LLM API key. The key is encrypted with
// AES-256-GCM before it reaches the store and is never returned by the API.
type Credential struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"-"`
	Name            string    `json:"name"`
	Provider        Provider  `json:"provider"`
	APIKeyEncrypted []byte    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCredential creates a credential shell; the caller encrypts the key.
func NewCredential(ownerID, name string, provider Provider) (*Credential, error) {
	if name == "" {
		return nil, ErrCredentialNameRequired
	}
	if !provider.IsValid() {
		return nil, ErrInvalidProvider
	}

	return &Credential{
		ID:        "cred_" + uuid.New().String()[:8],
		OwnerID:   ownerID,
		Name:      name,
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}, nil
}
