package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
)

func WriteAccountTable(w io.Writer, accounts []acquire.Account) {
	if len(accounts) == 0 {
		_, _ = fmt.Fprintln(w, "No cached accounts")
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "USERNAME\tENVIRONMENT\tID")
	for _, a := range accounts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", dash(a.Username), dash(a.Environment), a.ID)
	}
	_ = tw.Flush()
}

// Claims is the summary of a JWT shown by inspect.
type Claims struct {
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Username  string    `json:"username,omitempty" yaml:"username,omitempty"`
	Issuer    string    `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Audience  []string  `json:"audience,omitempty" yaml:"audience,omitempty"`
	Scopes    []string  `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Roles     []string  `json:"roles,omitempty" yaml:"roles,omitempty"`
	IssuedAt  time.Time `json:"issuedAt,omitempty" yaml:"issuedAt,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

func WriteClaimsTable(w io.Writer, c Claims) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	rows := [][2]string{
		{"SUBJECT", dash(c.Subject)},
		{"USERNAME", dash(c.Username)},
		{"ISSUER", dash(c.Issuer)},
		{"AUDIENCE", dash(strings.Join(c.Audience, ","))},
		{"SCOPES", dash(strings.Join(c.Scopes, " "))},
		{"ROLES", dash(strings.Join(c.Roles, ","))},
		{"ISSUED", formatTime(c.IssuedAt)},
		{"EXPIRES", formatTime(c.ExpiresAt)},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
