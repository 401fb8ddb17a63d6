package output

import (
	"io"
	"time"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
)

// TokenView is the structured form of an acquisition outcome.
type TokenView struct {
	Status      string           `json:"status" yaml:"status"`
	Source      string           `json:"source,omitempty" yaml:"source,omitempty"`
	ExpiresOn   *time.Time       `json:"expiresOn,omitempty" yaml:"expiresOn,omitempty"`
	Scopes      []string         `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Account     *acquire.Account `json:"account,omitempty" yaml:"account,omitempty"`
	AccessToken string           `json:"accessToken,omitempty" yaml:"accessToken,omitempty"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
}

var _ acquire.Reporter = (*ObjectReporter)(nil)

// ObjectReporter writes the outcome as a single JSON or YAML document.
type ObjectReporter struct {
	Out        io.Writer
	Format     Format
	PrintToken bool
}

func (r *ObjectReporter) Success(res acquire.Result) {
	view := TokenView{Status: "success", Source: res.Source, Scopes: res.Scopes}
	if !res.ExpiresOn.IsZero() {
		expires := res.ExpiresOn.UTC()
		view.ExpiresOn = &expires
	}
	if !res.Account.IsZero() {
		account := res.Account
		view.Account = &account
	}
	if r.PrintToken {
		view.AccessToken = res.AccessToken
	}
	_ = WriteObject(r.Out, r.Format, view)
}

func (r *ObjectReporter) Failure(err error) {
	view := TokenView{Status: "failure"}
	if pe, ok := acquire.AsProviderError(err); ok {
		view.Error = pe.Code
		view.Description = pe.Description
	} else if err != nil {
		view.Description = err.Error()
	}
	_ = WriteObject(r.Out, r.Format, view)
}

// NewReporter returns the reporter for format: the status line reporter for
// text, an ObjectReporter for JSON and YAML.
func NewReporter(w io.Writer, format Format, printToken bool) acquire.Reporter {
	if format.Structured() {
		return &ObjectReporter{Out: w, Format: format, PrintToken: printToken}
	}
	return &acquire.StatusReporter{Out: w, PrintToken: printToken}
}
