package acquire

import (
	"context"
	"errors"
	"fmt"

	"github.com/owleyeart/bba/pkg/gettoken/config"
)

const (
	StrategySilent            = "silent"
	StrategyInteractive       = "interactive"
	StrategyDeviceCode        = "device-code"
	StrategyClientCredentials = "client-credentials"
)

// Strategy is one way of obtaining a token. Attempt is called at most once
// per procedure run.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, scopes []string) (Result, error)
}

// SilentStrategy reuses the first cached account. With no cached accounts
// it fails with ErrNoCachedAccount without calling AcquireSilent.
type SilentStrategy struct {
	Client IdentityClient
}

func (s SilentStrategy) Name() string { return StrategySilent }

func (s SilentStrategy) Attempt(ctx context.Context, scopes []string) (Result, error) {
	accounts, err := s.Client.Accounts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to list cached accounts: %w", ErrSilentFailed, err)
	}
	if len(accounts) == 0 {
		return Result{}, ErrNoCachedAccount
	}
	res, err := s.Client.AcquireSilent(ctx, scopes, accounts[0])
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSilentFailed, err)
	}
	if res.AccessToken == "" {
		return Result{}, fmt.Errorf("%w: no access token in result", ErrSilentFailed)
	}
	return res, nil
}

type InteractiveStrategy struct {
	Client IdentityClient
}

func (s InteractiveStrategy) Name() string { return StrategyInteractive }

func (s InteractiveStrategy) Attempt(ctx context.Context, scopes []string) (Result, error) {
	res, err := s.Client.AcquireInteractive(ctx, scopes)
	return checkTerminal(res, err, ErrInteractiveFailed)
}

// DeviceCodeStrategy is the interactive step for terminals without a browser.
type DeviceCodeStrategy struct {
	Client DeviceCodeClient
	Prompt func(message string)
}

func (s DeviceCodeStrategy) Name() string { return StrategyDeviceCode }

func (s DeviceCodeStrategy) Attempt(ctx context.Context, scopes []string) (Result, error) {
	prompt := s.Prompt
	if prompt == nil {
		prompt = func(string) {}
	}
	res, err := s.Client.AcquireByDeviceCode(ctx, scopes, prompt)
	return checkTerminal(res, err, ErrInteractiveFailed)
}

type ClientCredentialsStrategy struct {
	Client CredentialClient
}

func (s ClientCredentialsStrategy) Name() string { return StrategyClientCredentials }

func (s ClientCredentialsStrategy) Attempt(ctx context.Context, scopes []string) (Result, error) {
	res, err := s.Client.AcquireByCredential(ctx, scopes)
	return checkTerminal(res, err, ErrCredentialFailed)
}

func checkTerminal(res Result, err error, sentinel error) (Result, error) {
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", sentinel, err)
	}
	if res.AccessToken == "" {
		return Result{}, fmt.Errorf("%w: no access token in result", sentinel)
	}
	return res, nil
}

// DefaultStrategies is silent reuse followed by interactive login.
func DefaultStrategies(client IdentityClient) []Strategy {
	return []Strategy{
		SilentStrategy{Client: client},
		InteractiveStrategy{Client: client},
	}
}

// Plan returns the strategy list for a grant type. Device code replaces the
// browser step; client credentials is a single confidential-client step.
func Plan(grantType string, client IdentityClient, prompt func(string)) ([]Strategy, error) {
	if client == nil {
		return nil, errors.New("identity client is nil")
	}
	switch grantType {
	case "", config.GrantAuthorizationCode:
		return DefaultStrategies(client), nil
	case config.GrantDeviceCode:
		dc, ok := client.(DeviceCodeClient)
		if !ok {
			return nil, fmt.Errorf("identity client %T does not support the device code grant", client)
		}
		return []Strategy{
			SilentStrategy{Client: client},
			DeviceCodeStrategy{Client: dc, Prompt: prompt},
		}, nil
	case config.GrantClientCredentials:
		cc, ok := client.(CredentialClient)
		if !ok {
			return nil, fmt.Errorf("identity client %T does not support the client credentials grant", client)
		}
		return []Strategy{ClientCredentialsStrategy{Client: cc}}, nil
	default:
		return nil, fmt.Errorf("unsupported grant type: %s", grantType)
	}
}
