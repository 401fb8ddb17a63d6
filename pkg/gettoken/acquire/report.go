package acquire

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

type Reporter interface {
	Success(res Result)
	Failure(err error)
}

// StatusReporter writes human-readable status lines. The access token is
// written only when PrintToken is set.
type StatusReporter struct {
	Out        io.Writer
	PrintToken bool
	Now        func() time.Time
}

func (r *StatusReporter) Success(res Result) {
	detail := res.Source
	if !res.ExpiresOn.IsZero() {
		now := time.Now()
		if r.Now != nil {
			now = r.Now()
		}
		detail = fmt.Sprintf("%s, expires %s", detail, humanize.RelTime(res.ExpiresOn, now, "ago", "from now"))
	}
	if res.Account.Username != "" {
		detail = fmt.Sprintf("%s, account %s", detail, res.Account.Username)
	}
	_, _ = fmt.Fprintf(r.Out, "✅ Access token acquired (%s)\n", detail)
	if r.PrintToken {
		_, _ = fmt.Fprintln(r.Out, res.AccessToken)
	}
}

func (r *StatusReporter) Failure(err error) {
	_, _ = fmt.Fprintln(r.Out, "❌ Failed to get token")
	if pe, ok := AsProviderError(err); ok {
		_, _ = fmt.Fprintf(r.Out, "error: %s\n", pe.Code)
		_, _ = fmt.Fprintf(r.Out, "description: %s\n", pe.Description)
		return
	}
	if err != nil {
		_, _ = fmt.Fprintf(r.Out, "reason: %s\n", err)
	}
}
