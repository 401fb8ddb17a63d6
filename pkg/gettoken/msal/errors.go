package msal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
)

// errorRecorder remembers the last OAuth error body returned by the
// identity provider. MSAL flattens these into plain errors, so this is the
// only place the code and description survive.
type errorRecorder struct {
	base http.RoundTripper

	mu   sync.Mutex
	last *acquire.ProviderError
}

func (r *errorRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if readErr != nil {
		return resp, nil
	}
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		r.mu.Lock()
		r.last = &acquire.ProviderError{Code: payload.Error, Description: payload.ErrorDescription}
		r.mu.Unlock()
	}
	return resp, nil
}

func (r *errorRecorder) reset() {
	r.mu.Lock()
	r.last = nil
	r.mu.Unlock()
}

func (r *errorRecorder) take() *acquire.ProviderError {
	r.mu.Lock()
	defer r.mu.Unlock()
	pe := r.last
	r.last = nil
	return pe
}

// translate returns the provider error behind err when one is known.
func (r *errorRecorder) translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := acquire.AsProviderError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if pe := r.take(); pe != nil {
		return pe
	}
	return err
}
