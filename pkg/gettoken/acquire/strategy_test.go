package acquire

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owleyeart/bba/pkg/gettoken/config"
)

func TestSilentStrategy_NoAccounts(t *testing.T) {
	client := &fakeClient{}
	_, err := SilentStrategy{Client: client}.Attempt(context.Background(), graphScopes)
	require.ErrorIs(t, err, ErrNoCachedAccount)
	assert.Equal(t, []string{"accounts"}, client.calls)
}

func TestInteractiveStrategy_EmptyToken(t *testing.T) {
	client := &fakeClient{interactive: Result{}}
	_, err := InteractiveStrategy{Client: client}.Attempt(context.Background(), graphScopes)
	require.ErrorIs(t, err, ErrInteractiveFailed)
	assert.Contains(t, err.Error(), "no access token")
}

func TestDeviceCodeStrategy(t *testing.T) {
	client := &fakeClient{
		deviceMessage: "Visit https://microsoft.com/devicelogin and enter ABCD",
		deviceCode:    tokenResult("device-token"),
	}
	var prompted string
	s := DeviceCodeStrategy{Client: client, Prompt: func(msg string) { prompted = msg }}

	res, err := s.Attempt(context.Background(), graphScopes)
	require.NoError(t, err)
	assert.Equal(t, "device-token", res.AccessToken)
	assert.Contains(t, prompted, "ABCD")

	client.deviceCodeErr = &ProviderError{Code: "expired_token"}
	_, err = DeviceCodeStrategy{Client: client}.Attempt(context.Background(), graphScopes)
	require.ErrorIs(t, err, ErrInteractiveFailed)
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "expired_token", pe.Code)
}

func TestClientCredentialsStrategy(t *testing.T) {
	client := &fakeClient{credential: tokenResult("app-token")}
	res, err := ClientCredentialsStrategy{Client: client}.Attempt(context.Background(), graphScopes)
	require.NoError(t, err)
	assert.Equal(t, "app-token", res.AccessToken)

	client.credentialErr = errors.New("boom")
	_, err = ClientCredentialsStrategy{Client: client}.Attempt(context.Background(), graphScopes)
	require.ErrorIs(t, err, ErrCredentialFailed)
}

func TestPlan(t *testing.T) {
	client := &fakeClient{}

	t.Run("authorization code", func(t *testing.T) {
		strategies, err := Plan(config.GrantAuthorizationCode, client, nil)
		require.NoError(t, err)
		require.Len(t, strategies, 2)
		assert.Equal(t, StrategySilent, strategies[0].Name())
		assert.Equal(t, StrategyInteractive, strategies[1].Name())
	})

	t.Run("empty grant defaults to authorization code", func(t *testing.T) {
		strategies, err := Plan("", client, nil)
		require.NoError(t, err)
		require.Len(t, strategies, 2)
	})

	t.Run("device code", func(t *testing.T) {
		strategies, err := Plan(config.GrantDeviceCode, client, nil)
		require.NoError(t, err)
		require.Len(t, strategies, 2)
		assert.Equal(t, StrategySilent, strategies[0].Name())
		assert.Equal(t, StrategyDeviceCode, strategies[1].Name())
	})

	t.Run("client credentials", func(t *testing.T) {
		strategies, err := Plan(config.GrantClientCredentials, client, nil)
		require.NoError(t, err)
		require.Len(t, strategies, 1)
		assert.Equal(t, StrategyClientCredentials, strategies[0].Name())
	})

	t.Run("unsupported capabilities", func(t *testing.T) {
		_, err := Plan(config.GrantDeviceCode, basicClient{client}, nil)
		require.ErrorContains(t, err, "does not support the device code grant")

		_, err = Plan(config.GrantClientCredentials, basicClient{client}, nil)
		require.ErrorContains(t, err, "does not support the client credentials grant")
	})

	t.Run("unknown grant", func(t *testing.T) {
		_, err := Plan("password", client, nil)
		require.ErrorContains(t, err, "unsupported grant type")
	})

	t.Run("nil client", func(t *testing.T) {
		_, err := Plan("", nil, nil)
		require.Error(t, err)
	})
}

func TestProviderErrorMessage(t *testing.T) {
	assert.Equal(t, "access_denied: user cancelled", (&ProviderError{Code: "access_denied", Description: "user cancelled"}).Error())
	assert.Equal(t, "access_denied", (&ProviderError{Code: "access_denied"}).Error())
	assert.Equal(t, "user cancelled", (&ProviderError{Description: "user cancelled"}).Error())
	assert.Equal(t, "identity provider returned an error", (&ProviderError{}).Error())
}

func TestAccount(t *testing.T) {
	a := NewAccount("id", "user", "env", 42)
	assert.Equal(t, 42, a.Ref())
	assert.False(t, a.IsZero())
	assert.True(t, Account{}.IsZero())
}
