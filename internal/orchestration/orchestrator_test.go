package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/metrics"
	"github.com/comfyup/comfyup/internal/platform/comput3"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/workflow"
	testutil "github.com/comfyup/comfyup/internal/testing"
)

type fakeLauncher struct {
	workload *comput3.Workload
	err      error

	gotType  string
	gotHours float64
}

func (f *fakeLauncher) Launch(_ context.Context, workloadType string, hours float64) (*comput3.Workload, error) {
	f.gotType = workloadType
	f.gotHours = hours
	return f.workload, f.err
}

func launcherFor(m *testutil.Manager) *fakeLauncher {
	ep := m.Endpoints()
	return &fakeLauncher{workload: &comput3.Workload{ID: "w-1", Node: "node-1", APIBase: ep.APIBase, RootBase: ep.RootBase}}
}

// scriptHealthyManager scripts a manager that is ready at once, goes down
// on the first poll after the reboot request and comes straight back.
func scriptHealthyManager(m *testutil.Manager) {
	m.Idle()
	m.On(http.MethodGet, testutil.RouteQueue, testutil.Status(200), testutil.Status(503), testutil.Status(200))
	m.On(http.MethodGet, testutil.RouteCustomNodeList, testutil.JSON(200, `{"custom_nodes": [
		{"id": "comfyui-impact-pack", "title": "ComfyUI Impact Pack"}
	]}`))
	m.On(http.MethodGet, testutil.RouteReboot, testutil.Status(200))
	m.On(http.MethodPost, testutil.RouteQueueInstall, testutil.Status(200))
	m.On(http.MethodPost, testutil.RouteGitInstall, testutil.Status(200))
}

var lora = config.URLModel{
	URL:       "https://example.com/detail.safetensors",
	Filename:  "detail.safetensors",
	Subfolder: "loras",
}

func newOrchestrator(cfg *config.Config, launcher provisioning.Launcher, opts ...Option) (*Orchestrator, *testutil.Observer) {
	cfg.ApplyDefaults()
	obs := testutil.NewObserver()
	opts = append([]Option{WithRunID("run-1"), WithTimeouts(testutil.FastTimeouts())}, opts...)
	return New(cfg, launcher, obs, opts...), obs
}

func TestOrchestrator_Phases(t *testing.T) {
	t.Parallel()

	o, _ := newOrchestrator(&config.Config{}, nil)

	var names []string
	for _, p := range o.Phases() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"launch", "readiness", "install", "reboot", "url-models"}, names)
}

func TestOrchestrator_DefaultRunID(t *testing.T) {
	t.Parallel()

	a := New(&config.Config{}, nil, testutil.NewObserver())
	b := New(&config.Config{}, nil, testutil.NewObserver())

	assert.Len(t, a.RunID(), 36)
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestOrchestrator_Run(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	scriptHealthyManager(m)
	m.On(http.MethodPost, testutil.RouteExternalModelURL, testutil.Status(200))
	launcher := launcherFor(m)
	rec := metrics.NewRecorder()

	o, _ := newOrchestrator(&config.Config{
		Nodes:     []string{"impact pack"},
		URLModels: []config.URLModel{lora},
	}, launcher, WithMetrics(rec))

	rep, err := o.Run(testutil.TestContext(t))

	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.True(t, rep.Succeeded())
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, config.DefaultWorkloadType, launcher.gotType)
	assert.Equal(t, config.DefaultWorkloadHours, launcher.gotHours)
	require.NotNil(t, rep.Workload)
	assert.Equal(t, "w-1", rep.Workload.ID)
	assert.True(t, rep.Ready)
	assert.True(t, rep.Rebooted)

	require.Len(t, rep.Items, 3)
	assert.Equal(t, provisioning.KindNode, rep.Items[0].Kind)
	assert.Equal(t, provisioning.KindExtension, rep.Items[1].Kind)
	assert.Equal(t, config.RequiredExtensionURL, rep.Items[1].Name)
	assert.Equal(t, provisioning.KindURLModel, rep.Items[2].Kind)
	assert.Equal(t, "/externalmodel/install_url", rep.Items[2].Match)
	assert.Equal(t, 3, rep.Counts[provisioning.OutcomeInstalled])

	assert.Equal(t, 1, m.Count(http.MethodGet, testutil.RouteReboot))
	assert.Zero(t, m.Count(http.MethodPost, testutil.RoutePrompt), "the downloader is not used when the manager accepts")

	seq := m.Sequence()
	assert.Less(t, indexOf(seq, "GET "+testutil.RouteReboot), indexOf(seq, "POST "+testutil.RouteExternalModelURL),
		"url models are installed after the reboot")
	assert.Less(t, lastIndexOf(seq, "POST "+testutil.RouteGitInstall), indexOf(seq, "GET "+testutil.RouteReboot),
		"extensions are installed before the reboot")
}

func TestOrchestrator_FallsBackToDownloader(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	scriptHealthyManager(m)
	m.On(http.MethodPost, testutil.RoutePrompt, testutil.JSON(200, `{"prompt_id": "p1"}`))
	m.On(http.MethodGet, testutil.RouteHistory, testutil.JSON(200, `{"p1": {"status": {"completed": true}}}`))

	o, _ := newOrchestrator(&config.Config{URLModels: []config.URLModel{lora}}, launcherFor(m))

	rep, err := o.Run(testutil.TestContext(t))

	require.NoError(t, err)
	item := rep.Items[len(rep.Items)-1]
	assert.Equal(t, provisioning.KindURLModel, item.Kind)
	assert.Equal(t, provisioning.OutcomeInstalled, item.Outcome)
	assert.Equal(t, workflow.DownloaderClass, item.Match)

	assert.Equal(t, 2, m.Count(http.MethodPost, testutil.RouteExternalModelURL))
	assert.Equal(t, 2, m.Count(http.MethodPost, testutil.RouteModelAdd))

	var sent struct {
		ClientID string `json:"client_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(m.Requests(http.MethodPost, testutil.RoutePrompt)[0].Body), &sent))
	assert.Equal(t, "comfyup-run-1", sent.ClientID)
}

func TestOrchestrator_DownloaderError(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	scriptHealthyManager(m)
	m.On(http.MethodPost, testutil.RoutePrompt, testutil.JSON(200, `{"prompt_id": "p1"}`))
	m.On(http.MethodGet, testutil.RouteHistory, testutil.JSON(200, `{"p1": {"status": {"status_str": "error"}}}`))

	o, _ := newOrchestrator(&config.Config{URLModels: []config.URLModel{lora, lora}}, launcherFor(m))

	rep, err := o.Run(testutil.TestContext(t))

	require.NoError(t, err, "item failures do not fail the run")
	assert.Equal(t, 2, rep.Counts[provisioning.OutcomeFailed])
	assert.Equal(t, "downloader workflow reported an error", rep.Items[len(rep.Items)-1].Detail)
}

func TestOrchestrator_LaunchFailure(t *testing.T) {
	t.Parallel()

	o, obs := newOrchestrator(&config.Config{Nodes: []string{"x"}}, &fakeLauncher{err: errors.New("no capacity")})

	rep, err := o.Run(testutil.TestContext(t))

	require.ErrorContains(t, err, "launch phase failed")
	require.ErrorContains(t, err, "no capacity")
	require.NotNil(t, rep)
	assert.False(t, rep.Succeeded())
	assert.Contains(t, rep.Error, "no capacity")
	assert.Empty(t, rep.Items)
	assert.Len(t, obs.EventsOf(provisioning.EventPhaseFailed), 1)
}

func TestOrchestrator_RebootFailureAbortsRun(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	scriptHealthyManager(m)
	m.On(http.MethodGet, testutil.RouteReboot, testutil.Status(400))

	o, _ := newOrchestrator(&config.Config{URLModels: []config.URLModel{lora}}, launcherFor(m))

	rep, err := o.Run(testutil.TestContext(t))

	require.ErrorContains(t, err, "reboot phase failed")
	assert.False(t, rep.Rebooted)
	require.Len(t, rep.Items, 1, "only the required extension was attempted")
	assert.Equal(t, provisioning.KindExtension, rep.Items[0].Kind)
	assert.Zero(t, m.Count(http.MethodPost, testutil.RouteExternalModelURL))
}

func TestOrchestrator_Cancelled(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, _ := newOrchestrator(&config.Config{}, launcherFor(m))
	rep, err := o.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rep.Workload)
	assert.Empty(t, m.Requests("", ""))
}

func indexOf(seq []string, s string) int {
	for i, v := range seq {
		if v == s {
			return i
		}
	}
	return -1
}

func lastIndexOf(seq []string, s string) int {
	for i := len(seq) - 1; i >= 0; i-- {
		if seq[i] == s {
			return i
		}
	}
	return -1
}

func TestOrchestrator_RunReboot(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	scriptHealthyManager(m)
	ep := m.Endpoints()
	w := &comput3.Workload{ID: "existing", Node: "node-9", APIBase: ep.APIBase, RootBase: ep.RootBase}

	o, _ := newOrchestrator(&config.Config{Nodes: []string{"impact pack"}}, Attached(w))

	rep, err := o.RunReboot(testutil.TestContext(t))

	require.NoError(t, err)
	assert.True(t, rep.Rebooted)
	assert.Equal(t, "existing", rep.Workload.ID)
	assert.Empty(t, rep.Items, "no installs run during a reboot-only cycle")
	assert.Zero(t, m.Count(http.MethodPost, testutil.RouteQueueInstall))
}

func TestAttached(t *testing.T) {
	t.Parallel()

	w := comput3.WorkloadFor("node-1", "w-1")
	got, err := Attached(w).Launch(context.Background(), "ignored", 9)

	require.NoError(t, err)
	assert.Same(t, w, got)
}
