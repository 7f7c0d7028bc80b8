package install

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/catalog"
	testutil "github.com/comfyup/comfyup/internal/testing"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  Result
		err  error
		want provisioning.Outcome
	}{
		{"installed", Result{Accepted: true, Done: true}, nil, provisioning.OutcomeInstalled},
		{"drain timeout", Result{Accepted: true}, nil, provisioning.OutcomeTimeout},
		{"never accepted", Result{}, nil, provisioning.OutcomeFailed},
		{"hard error", Result{}, errors.New("boom"), provisioning.OutcomeFailed},
		{"no match", Result{}, fmt.Errorf("node %q: %w", "x", catalog.ErrNoMatch), provisioning.OutcomeSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Outcome(tt.res, tt.err))
		})
	}
}

func TestItemResult(t *testing.T) {
	t.Parallel()

	item := ItemResult(provisioning.KindModel, "sdxl", Result{Match: "sdxl.safetensors", Score: 400}, errors.New("boom"), time.Second)

	assert.Equal(t, provisioning.ItemResult{
		Kind:     provisioning.KindModel,
		Name:     "sdxl",
		Outcome:  provisioning.OutcomeFailed,
		Detail:   "boom",
		Match:    "sdxl.safetensors",
		Score:    400,
		Duration: time.Second,
	}, item)
}

func newProvisioningContext(t *testing.T, m *testutil.Manager, cfg *config.Config) (*provisioning.Context, *testutil.Observer) {
	t.Helper()
	obs := testutil.NewObserver()
	pctx := provisioning.NewContext(testutil.TestContext(t), cfg, nil, obs, "run-1")
	pctx.Timeouts = testutil.FastTimeouts()
	pctx.Client = m.Client()
	return pctx, obs
}

func TestProvisioner_InstallsInOrder(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t).Idle()
	m.On(http.MethodGet, testutil.RouteCustomNodeList, testutil.JSON(200, `{"custom_nodes": [
		{"id": "comfyui-impact-pack", "title": "ComfyUI Impact Pack", "repository": "https://github.com/ltdrdata/ComfyUI-Impact-Pack"}
	]}`))
	m.On(http.MethodGet, testutil.RouteExternalModelList, testutil.JSON(200, `{"models": []}`))
	m.On(http.MethodPost, testutil.RouteQueueInstall, testutil.Status(200))
	m.On(http.MethodPost, testutil.RouteGitInstall, testutil.Status(200))

	cfg := &config.Config{
		Nodes:       []string{"impact pack"},
		Models:      []string{"flux1-dev.safetensors"},
		GitHubNodes: []string{"https://github.com/kijai/ComfyUI-KJNodes"},
	}
	pctx, obs := newProvisioningContext(t, m, cfg)

	p := NewProvisioner()
	require.NoError(t, p.Provision(pctx))

	assert.Equal(t, "install", p.Name())
	items := pctx.State.Items
	require.Len(t, items, 4)
	assert.Equal(t, provisioning.KindNode, items[0].Kind)
	assert.Equal(t, provisioning.OutcomeInstalled, items[0].Outcome)
	assert.Equal(t, "comfyui-impact-pack", items[0].Match)
	assert.Equal(t, provisioning.KindModel, items[1].Kind)
	assert.Equal(t, provisioning.OutcomeSkipped, items[1].Outcome)
	assert.Equal(t, config.RequiredExtensionURL, items[2].Name)
	assert.Equal(t, provisioning.OutcomeInstalled, items[2].Outcome)
	assert.Equal(t, "https://github.com/kijai/ComfyUI-KJNodes", items[3].Name)

	gitPosts := m.Requests(http.MethodPost, testutil.RouteGitInstall)
	require.Len(t, gitPosts, 2)
	assert.Equal(t, config.RequiredExtensionURL, gitPosts[0].Body)

	assert.Len(t, obs.EventsOf(provisioning.EventItemSkipped), 1)
	assert.Len(t, obs.EventsOf(provisioning.EventItemInstalled), 3)
}

func TestProvisioner_ItemFailureDoesNotStopRun(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t).Idle()
	m.On(http.MethodGet, testutil.RouteCustomNodeList, testutil.JSON(200, `{"custom_nodes": [{"id": "a", "title": "A"}]}`))
	m.On(http.MethodPost, testutil.RouteQueueInstall, testutil.JSON(400, `{"error": "rejected"}`))
	m.On(http.MethodPost, testutil.RouteGitInstall, testutil.Status(200))

	pctx, obs := newProvisioningContext(t, m, &config.Config{Nodes: []string{"a", "b"}})

	require.NoError(t, NewProvisioner().Provision(pctx))

	items := pctx.State.Items
	require.Len(t, items, 3)
	assert.Equal(t, provisioning.OutcomeFailed, items[0].Outcome)
	assert.Contains(t, items[0].Detail, "rejected")
	assert.Equal(t, provisioning.OutcomeFailed, items[1].Outcome)
	assert.Equal(t, provisioning.OutcomeInstalled, items[2].Outcome)
	assert.Len(t, obs.Warnings(), 2)
}

func TestProvisioner_StopsWhenCancelled(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	pctx, _ := newProvisioningContext(t, m, &config.Config{Nodes: []string{"a"}})
	ctx, cancel := context.WithCancel(pctx.Context)
	cancel()
	pctx.Context = ctx

	err := NewProvisioner().Provision(pctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pctx.State.Items)
}
