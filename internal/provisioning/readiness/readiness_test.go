package readiness

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/comfyup/comfyup/internal/testing"
)

func fastProber(m *testutil.Manager, obs *testutil.Observer) *Prober {
	return NewProber(m.Client(), obs, WithBackoff(time.Millisecond, 5*time.Millisecond, 1.7))
}

func TestProbe_Ready(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		probe Probe
		want  bool
	}{
		{"all up", Probe{200, 200, 200, 200}, true},
		{"only model listing", Probe{200, 404, 404, 200}, true},
		{"only external model listing", Probe{200, 0, 200, 502}, true},
		{"queue down", Probe{502, 200, 200, 200}, false},
		{"no listing", Probe{200, 404, 404, 404}, false},
		{"nothing", Probe{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.probe.Ready())
		})
	}
}

func TestWaitReady_BecomesReady(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	m.On(http.MethodGet, testutil.RouteQueue, testutil.Status(502), testutil.Status(502), testutil.Status(200))
	m.On(http.MethodGet, testutil.RouteModelList, testutil.JSON(200, `[]`))
	obs := testutil.NewObserver()

	ok, err := fastProber(m, obs).WaitReady(testutil.TestContext(t), 0, time.Second)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, m.Count(http.MethodGet, testutil.RouteQueue))
	assert.Equal(t, 3, m.Count(http.MethodGet, testutil.RouteCustomNodeList), "every alternative is probed each round")
}

func TestWaitReady_ProbesQueryParameters(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t).Ready()
	ok, err := fastProber(m, testutil.NewObserver()).WaitReady(testutil.TestContext(t), 0, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	reqs := m.Requests(http.MethodGet, testutil.RouteCustomNodeList)
	require.NotEmpty(t, reqs)
	assert.Equal(t, "mode=cache&skip_update=true", reqs[0].Query)
}

func TestWaitReady_TimeoutIsSoft(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	m.On(http.MethodGet, testutil.RouteQueue, testutil.Status(200))
	obs := testutil.NewObserver()

	ok, err := fastProber(m, obs).WaitReady(testutil.TestContext(t), 0, 30*time.Millisecond)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, obs.HasWarning("Timed out"))
}

func TestWaitReady_InitialSleep(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t).Ready()
	start := time.Now()

	ok, err := fastProber(m, testutil.NewObserver()).WaitReady(testutil.TestContext(t), 40*time.Millisecond, time.Second)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitReady_Cancelled(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := fastProber(m, testutil.NewObserver()).WaitReady(ctx, time.Second, time.Second)

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
