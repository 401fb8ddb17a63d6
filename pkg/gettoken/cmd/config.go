package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/owleyeart/bba/pkg/gettoken/config"
	"github.com/owleyeart/bba/pkg/gettoken/output"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gettoken configuration",
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigViewCommand(),
		newConfigProfilesCommand(),
		newConfigUseProfileCommand(),
	)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		profile config.Profile
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a gettoken config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			path := rt.configPath
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists: %s", path)
				}
			}
			if profile.ClientID == "" {
				return errors.New("client-id is required")
			}
			if profile.Name == "" {
				profile.Name = config.DefaultProfileName
			}
			profile.Scopes = config.NormalizeScopes(profile.Scopes)

			cfg := config.DefaultConfig()
			cfg.CurrentProfile = profile.Name
			cfg.Profiles = []config.Profile{profile}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(path, &cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Initialized config at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile.Name, "name", config.DefaultProfileName, "Profile name")
	cmd.Flags().StringVar(&profile.Backend, "backend", "", "Identity client backend: msal or oidc")
	cmd.Flags().StringVar(&profile.ClientID, "client-id", "", "Application (client) ID")
	cmd.Flags().StringVar(&profile.TenantID, "tenant-id", "", "Directory (tenant) ID")
	cmd.Flags().StringVar(&profile.Authority, "authority", "", "Authority or issuer URL")
	cmd.Flags().StringSliceVar(&profile.Scopes, "scope", nil, "Scope to request (repeatable)")
	cmd.Flags().StringVar(&profile.GrantType, "grant-type", "", "Grant type")
	cmd.Flags().StringVar(&profile.ClientSecretEnv, "client-secret-env", "", "Environment variable holding the client secret")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			format, err := rt.OutputFormat()
			if err != nil {
				return err
			}
			if !format.Structured() {
				format = output.FormatYAML
			}
			return output.WriteObject(rt.Writer(), format, redacted(rt.cfg))
		},
	}
}

// redacted returns a copy of cfg with inline client secrets masked.
func redacted(cfg *config.Config) config.Config {
	out := *cfg
	out.Profiles = make([]config.Profile, len(cfg.Profiles))
	for i, p := range cfg.Profiles {
		if p.ClientSecret != "" {
			p.ClientSecret = "REDACTED"
		}
		out.Profiles[i] = p
	}
	return out
}

func newConfigProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"get-profiles"},
		Short:   "List configured profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			current := rt.cfg.CurrentProfileOrDefault()
			tw := tabwriter.NewWriter(rt.Writer(), 2, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "CURRENT\tNAME\tBACKEND\tCLIENT_ID\tAUTHORITY")
			for _, p := range rt.cfg.Profiles {
				marker := ""
				if p.Name == current {
					marker = "*"
				}
				backend := p.Backend
				if backend == "" {
					backend = config.BackendMSAL
				}
				authority := p.Authority
				if authority == "" {
					authority = config.DeriveAuthority(p.AuthorityHost, p.TenantID)
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, p.Name, backend, p.ClientID, authority)
			}
			return tw.Flush()
		},
	}
}

func newConfigUseProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "use-profile NAME",
		Aliases: []string{"use"},
		Short:   "Set the default profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			name := args[0]
			if _, err := rt.cfg.FindProfile(name); err != nil {
				return err
			}
			rt.cfg.CurrentProfile = name
			if err := config.Save(rt.configPath, rt.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Switched to profile %q\n", name)
			return nil
		},
	}
}
