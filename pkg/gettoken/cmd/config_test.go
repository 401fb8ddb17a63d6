package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owleyeart/bba/pkg/gettoken/config"
)

func TestConfigInit(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.run("config", "init", "--client-id", "app-id", "--tenant-id", "contoso", "--scope", "User.Read"))
	assert.Contains(t, h.stdout.String(), "Initialized config at")

	cfg, err := config.Load(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.CurrentProfile)
	require.Len(t, cfg.Profiles, 1)
	assert.Equal(t, "app-id", cfg.Profiles[0].ClientID)
	assert.Equal(t, []string{"User.Read"}, cfg.Profiles[0].Scopes)

	err = h.run("config", "init", "--client-id", "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config already exists")

	require.NoError(t, h.run("config", "init", "--client-id", "other", "--force"))
}

func TestConfigInit_RequiresClientID(t *testing.T) {
	h := newHarness(t, nil)
	err := h.run("config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client-id is required")
}

func writeProfiles(t *testing.T, h *harness) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CurrentProfile = "work"
	cfg.Profiles = []config.Profile{
		{Name: "work", ClientID: "work-app", TenantID: "contoso", ClientSecret: "hunter2"},
		{Name: "lab", Backend: config.BackendOIDC, ClientID: "lab-app", Authority: "https://idp.lab.example"},
	}
	require.NoError(t, config.Save(h.configPath, &cfg))
}

func TestConfigView_RedactsSecrets(t *testing.T) {
	h := newHarness(t, nil)
	writeProfiles(t, h)

	require.NoError(t, h.run("config", "view"))
	assert.Contains(t, h.stdout.String(), "work-app")
	assert.Contains(t, h.stdout.String(), "REDACTED")
	assert.NotContains(t, h.stdout.String(), "hunter2")
}

func TestConfigProfilesAndUseProfile(t *testing.T) {
	h := newHarness(t, nil)
	writeProfiles(t, h)

	require.NoError(t, h.run("config", "profiles"))
	out := h.stdout.String()
	assert.Contains(t, out, "https://login.microsoftonline.com/contoso")
	assert.Contains(t, out, "https://idp.lab.example")
	assert.Regexp(t, `\*\s+work`, out)

	require.NoError(t, h.run("config", "use-profile", "lab"))
	cfg, err := config.Load(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, "lab", cfg.CurrentProfile)

	err = h.run("config", "use-profile", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile not found")
}

func TestProfileSelection(t *testing.T) {
	client := &stubClient{}
	h := newHarness(t, client)
	writeProfiles(t, h)

	require.NoError(t, h.run("accounts", "-p", "lab"))
	assert.Equal(t, "lab-app", h.seen.ClientID)
	assert.Equal(t, "oidc", h.seen.Backend)

	require.NoError(t, h.run("accounts"))
	assert.Equal(t, "work-app", h.seen.ClientID)
	assert.Equal(t, "hunter2", h.seen.ClientSecret)
}
