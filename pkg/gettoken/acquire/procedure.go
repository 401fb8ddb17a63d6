package acquire

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Procedure runs strategies in order and stops at the first success.
type Procedure struct {
	strategies []Strategy
	scopes     []string
	reporter   Reporter
	log        *zap.SugaredLogger
}

type Option func(p *Procedure)

func WithReporter(r Reporter) Option {
	return func(p *Procedure) {
		p.reporter = r
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Procedure) {
		if log != nil {
			p.log = log
		}
	}
}

// New builds a procedure. Without WithReporter, status goes to stdout and
// the token itself is not printed.
func New(scopes []string, strategies []Strategy, opts ...Option) *Procedure {
	p := &Procedure{
		strategies: strategies,
		scopes:     append([]string(nil), scopes...),
		reporter:   &StatusReporter{Out: os.Stdout},
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire evaluates the strategies without reporting.
func (p *Procedure) Acquire(ctx context.Context) (Result, error) {
	if len(p.strategies) == 0 {
		return Result{}, ErrNoStrategies
	}
	var attempts *multierror.Error
	var last error
	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			attempts = multierror.Append(attempts, err)
			last = err
			break
		}
		p.log.Debugw("Attempting token acquisition", "strategy", s.Name(), "scopes", p.scopes)
		res, err := s.Attempt(ctx, p.scopes)
		if err == nil {
			res.Source = s.Name()
			p.log.Infow("Token acquired", "strategy", s.Name(), "expiresOn", res.ExpiresOn)
			return res, nil
		}
		p.log.Debugw("Strategy did not yield a token", "strategy", s.Name(), "error", err)
		attempts = multierror.Append(attempts, fmt.Errorf("%s: %w", s.Name(), err))
		last = err
	}
	return Result{}, &AcquisitionError{attempts: attempts, last: last}
}

// Run acquires a token and reports the outcome. On failure it returns an
// empty token and the error.
func (p *Procedure) Run(ctx context.Context) (string, error) {
	res, err := p.Acquire(ctx)
	if err != nil {
		if p.reporter != nil {
			p.reporter.Failure(err)
		}
		return "", err
	}
	if p.reporter != nil {
		p.reporter.Success(res)
	}
	return res.AccessToken, nil
}

// GetAccessToken tries silent acquisition for the first cached account and
// falls back to interactive login.
func GetAccessToken(ctx context.Context, client IdentityClient, scopes []string, opts ...Option) (string, error) {
	return New(scopes, DefaultStrategies(client), opts...).Run(ctx)
}
