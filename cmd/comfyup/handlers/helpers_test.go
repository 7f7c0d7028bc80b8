package handlers

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/platform/comput3"
	"github.com/comfyup/comfyup/internal/provisioning"
	testutil "github.com/comfyup/comfyup/internal/testing"
)

// saveAndRestoreFactories saves and restores every factory variable and
// captures output in the returned buffer.
func saveAndRestoreFactories(t *testing.T) *bytes.Buffer {
	t.Helper()

	origLoadConfigFile := loadConfigFile
	origLoadTimeouts := loadTimeouts
	origNewLauncher := newLauncher
	origWorkloadFor := workloadFor
	origNewObserver := newObserver
	origOpenSinks := openSinks
	origOutput := output
	origLookupEnv := lookupEnv
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origRunWizard := runWizard
	origWriteConfig := writeConfig
	origReadReportFile := readReportFile
	origOpenReportReader := openReportReader

	t.Cleanup(func() {
		loadConfigFile = origLoadConfigFile
		loadTimeouts = origLoadTimeouts
		newLauncher = origNewLauncher
		workloadFor = origWorkloadFor
		newObserver = origNewObserver
		openSinks = origOpenSinks
		output = origOutput
		lookupEnv = origLookupEnv
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		runWizard = origRunWizard
		writeConfig = origWriteConfig
		readReportFile = origReadReportFile
		openReportReader = origOpenReportReader
	})

	buf := &bytes.Buffer{}
	output = buf
	loadTimeouts = testutil.FastTimeouts
	newObserver = func(LogOptions) provisioning.Observer { return testutil.NewObserver() }
	return buf
}

// useConfig makes loadConfigFile return cfg with defaults and an API key.
func useConfig(cfg *config.Config) {
	cfg.ApplyDefaults()
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	loadConfigFile = func(string) (*config.Config, error) { return cfg, nil }
}

// useManager points every workload handle at m.
func useManager(m *testutil.Manager) {
	ep := m.Endpoints()
	w := &comput3.Workload{ID: "w-1", Node: "node-1", APIBase: ep.APIBase, RootBase: ep.RootBase}
	newLauncher = func(string) provisioning.Launcher { return &stubLauncher{workload: w} }
	workloadFor = func(node, id string) *comput3.Workload {
		return &comput3.Workload{ID: id, Node: node, APIBase: ep.APIBase, RootBase: ep.RootBase}
	}
}

type stubLauncher struct {
	workload *comput3.Workload
	err      error
}

func (s *stubLauncher) Launch(context.Context, string, float64) (*comput3.Workload, error) {
	return s.workload, s.err
}

// scriptHealthyManager scripts a manager that installs everything and
// survives a reboot.
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
