package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/gettoken/output"
)

// ErrTokenAcquisition wraps a failed acquisition whose outcome has already
// been reported on the output writer.
var ErrTokenAcquisition = errors.New("token acquisition failed")

func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Acquire an access token (same as running gettoken without arguments)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGet(cmd)
		},
	}
}

func runGet(cmd *cobra.Command) error {
	rt, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	format, err := rt.OutputFormat()
	if err != nil {
		return err
	}
	reporter := output.NewReporter(rt.Writer(), format, rt.Settings().PrintToken)

	_, err = acquireToken(cmd, rt, reporter)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenAcquisition, err)
	}
	return nil
}

// acquireToken runs the acquisition procedure for the active profile. A
// configuration problem is reported through reporter like any other
// failure.
func acquireToken(cmd *cobra.Command, rt *runtimeState, reporter acquire.Reporter) (acquire.Result, error) {
	fail := func(err error) (acquire.Result, error) {
		if reporter != nil {
			reporter.Failure(err)
		}
		return acquire.Result{}, err
	}

	client, cc, err := rt.IdentityClient()
	if err != nil {
		return fail(err)
	}
	prompt := func(msg string) {
		_, _ = fmt.Fprintln(rt.ErrWriter(), msg)
	}
	strategies, err := acquire.Plan(cc.GrantType, client, prompt)
	if err != nil {
		return fail(err)
	}
	proc := acquire.New(cc.Scopes, strategies,
		acquire.WithReporter(nil),
		acquire.WithLogger(rt.log.With("profile", cc.Profile)),
	)
	res, err := proc.Acquire(cmd.Context())
	if err != nil {
		var ae *acquire.AcquisitionError
		if errors.As(err, &ae) {
			rt.log.Debugw("All strategies failed", "attempts", ae.Summary())
		}
		return fail(err)
	}
	if reporter != nil {
		reporter.Success(res)
	}
	return res, nil
}
