package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyup/comfyup/internal/config"
	testutil "github.com/comfyup/comfyup/internal/testing"
)

func envWith(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestReboot(t *testing.T) {
	out := saveAndRestoreFactories(t)
	m := testutil.NewManager(t)
	scriptHealthyManager(m)
	useManager(m)
	lookupEnv = envWith(map[string]string{config.EnvAPIKey: "k"})

	err := Reboot(testutil.TestContext(t), "node-3", "w-3", LogOptions{})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Reboot of node-3 complete")
	assert.Equal(t, 1, m.Count(http.MethodGet, testutil.RouteReboot))
	req := m.Requests(http.MethodGet, testutil.RouteReboot)[0]
	assert.Equal(t, "k", req.Header.Get("X-C3-API-KEY"))
}

func TestReboot_Rejected(t *testing.T) {
	saveAndRestoreFactories(t)
	m := testutil.NewManager(t)
	scriptHealthyManager(m)
	m.On(http.MethodGet, testutil.RouteReboot, testutil.Status(401))
	useManager(m)
	lookupEnv = envWith(map[string]string{config.EnvAPIKey: "k"})

	err := Reboot(testutil.TestContext(t), "node-3", "", LogOptions{})

	require.ErrorContains(t, err, "reboot of node-3 failed")
}

func TestReboot_MissingCredentials(t *testing.T) {
	saveAndRestoreFactories(t)
	lookupEnv = envWith(nil)

	err := Reboot(testutil.TestContext(t), "node-3", "", LogOptions{})

	require.ErrorContains(t, err, config.EnvAPIKey)
}
