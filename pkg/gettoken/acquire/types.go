package acquire

import (
	"context"
	"time"
)

// Account is an opaque reference to an identity that signed in before.
// The display fields are informational; identity clients use Ref to get
// back their native handle.
type Account struct {
	ID          string `json:"id" yaml:"id"`
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`

	ref any
}

func NewAccount(id, username, environment string, ref any) Account {
	return Account{ID: id, Username: username, Environment: environment, ref: ref}
}

func (a Account) Ref() any {
	return a.ref
}

func (a Account) IsZero() bool {
	return a.ID == "" && a.ref == nil
}

// Result is a successful acquisition.
type Result struct {
	AccessToken string
	IDToken     string
	TokenType   string
	ExpiresOn   time.Time
	Scopes      []string
	Account     Account
	// Source names the strategy that produced the token.
	Source string
}

// IdentityClient is the minimum an identity provider backend offers.
type IdentityClient interface {
	// Accounts lists locally cached accounts; the list may be empty.
	Accounts(ctx context.Context) ([]Account, error)
	// AcquireSilent must not involve the user.
	AcquireSilent(ctx context.Context, scopes []string, account Account) (Result, error)
	// AcquireInteractive blocks until the user completes or abandons login.
	AcquireInteractive(ctx context.Context, scopes []string) (Result, error)
}

// DeviceCodeClient is implemented by backends that support the device
// authorization grant. prompt receives the instructions for the user.
type DeviceCodeClient interface {
	AcquireByDeviceCode(ctx context.Context, scopes []string, prompt func(message string)) (Result, error)
}

// CredentialClient is implemented by backends configured as confidential
// clients.
type CredentialClient interface {
	AcquireByCredential(ctx context.Context, scopes []string) (Result, error)
}

type AccountRemover interface {
	RemoveAccount(ctx context.Context, account Account) error
}
