package acquire

import (
	"context"
	"time"
)

// fakeClient records calls so tests can assert on strategy ordering.
type fakeClient struct {
	accounts    []Account
	accountsErr error

	silent    Result
	silentErr error

	interactive    Result
	interactiveErr error

	deviceCode    Result
	deviceCodeErr error
	deviceMessage string

	credential    Result
	credentialErr error

	calls []string
}

func (f *fakeClient) Accounts(context.Context) ([]Account, error) {
	f.calls = append(f.calls, "accounts")
	return f.accounts, f.accountsErr
}

func (f *fakeClient) AcquireSilent(_ context.Context, _ []string, account Account) (Result, error) {
	f.calls = append(f.calls, "silent:"+account.ID)
	return f.silent, f.silentErr
}

func (f *fakeClient) AcquireInteractive(context.Context, []string) (Result, error) {
	f.calls = append(f.calls, "interactive")
	return f.interactive, f.interactiveErr
}

func (f *fakeClient) AcquireByDeviceCode(_ context.Context, _ []string, prompt func(string)) (Result, error) {
	f.calls = append(f.calls, "device-code")
	if f.deviceMessage != "" {
		prompt(f.deviceMessage)
	}
	return f.deviceCode, f.deviceCodeErr
}

func (f *fakeClient) AcquireByCredential(context.Context, []string) (Result, error) {
	f.calls = append(f.calls, "credential")
	return f.credential, f.credentialErr
}

func (f *fakeClient) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// basicClient supports neither device code nor client credentials.
type basicClient struct {
	IdentityClient
}

func cachedAccount() Account {
	return NewAccount("home-1", "bob@example.com", "login.microsoftonline.com", "native-handle")
}

func tokenResult(token string) Result {
	return Result{AccessToken: token, ExpiresOn: time.Now().Add(time.Hour)}
}
