package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"

	"github.com/owleyeart/bba/pkg/gettoken/output"
)

func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [TOKEN|-]",
		Short: "Decode the claims of an access token without verifying it",
		Long: `Decode the claims of a JWT access token. With no argument a token is
acquired for the active profile first; "-" reads the token from stdin.
The signature is not verified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := rt.OutputFormat()
			if err != nil {
				return err
			}

			var raw string
			switch {
			case len(args) == 1 && args[0] == "-":
				raw, err = readToken(cmd.InOrStdin())
				if err != nil {
					return err
				}
			case len(args) == 1:
				raw = args[0]
			default:
				res, err := acquireToken(cmd, rt, nil)
				if err != nil {
					return err
				}
				raw = res.AccessToken
			}

			claims, err := decodeClaims(raw)
			if err != nil {
				return err
			}
			if format.Structured() {
				return output.WriteObject(rt.Writer(), format, claims)
			}
			output.WriteClaimsTable(rt.Writer(), claims)
			return nil
		},
	}
}

func readToken(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no token on stdin")
	}
	return line, nil
}

func decodeClaims(raw string) (output.Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return output.Claims{}, fmt.Errorf("token is not a JWT: %w", err)
	}
	out := output.Claims{
		Subject:   stringClaim(claims, "sub"),
		Issuer:    stringClaim(claims, "iss"),
		Audience:  listClaim(claims, "aud"),
		Roles:     listClaim(claims, "roles"),
		IssuedAt:  timeClaim(claims, "iat"),
		ExpiresAt: timeClaim(claims, "exp"),
	}
	for _, key := range []string{"preferred_username", "upn", "unique_name", "email"} {
		if v := stringClaim(claims, key); v != "" {
			out.Username = v
			break
		}
	}
	// Entra ID uses scp, RFC 9068 uses scope.
	for _, key := range []string{"scp", "scope"} {
		if v := stringClaim(claims, key); v != "" {
			out.Scopes = strings.Fields(v)
			break
		}
	}
	return out, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func listClaim(claims jwt.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func timeClaim(claims jwt.MapClaims, key string) time.Time {
	switch v := claims[key].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case int64:
		return time.Unix(v, 0).UTC()
	default:
		return time.Time{}
	}
}
