package provisioning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/platform/comput3"
	"github.com/comfyup/comfyup/internal/util/retry"
)

func TestNewContext(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{APIKey: "k"}
	obs := NewMockObserver()
	ctx := NewContext(context.Background(), cfg, nil, obs, "run-1")

	require.NotNil(t, ctx.State)
	require.NotNil(t, ctx.Timeouts)
	assert.Equal(t, "run-1", ctx.State.RunID)
	assert.Same(t, cfg, ctx.Config)
	assert.Nil(t, ctx.Client)
}

func TestContext_Attach(t *testing.T) {
	t.Parallel()

	ctx := NewContext(context.Background(), &config.Config{APIKey: "k"}, nil, NewMockObserver(), "run-1")
	w := comput3.WorkloadFor("abc123", "w1")
	ctx.Attach(w)

	require.NotNil(t, ctx.Client)
	assert.Same(t, w, ctx.State.Workload)
	assert.Equal(t, "https://ui-abc123/api/queue", ctx.Client.APIURL("/queue"))
	assert.Equal(t, "https://ui-abc123/prompt", ctx.Client.RootURL("/prompt"))
}

func TestContext_BackoffLogsRetries(t *testing.T) {
	t.Parallel()

	obs := NewMockObserver()
	ctx := NewContext(context.Background(), &config.Config{}, nil, obs, "run-1")
	ctx.Timeouts.RetryInitialDelay = time.Millisecond
	ctx.Timeouts.RetryMaxDelay = time.Millisecond

	codes := []int{503, 200}
	i := 0
	ok, err := retry.UntilAccepted(context.Background(), func(context.Context) (int, string, error) {
		code := codes[i]
		i++
		return code, "", nil
	}, ctx.Backoff("enqueue", 6)...)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []EventType{EventRetry}, obs.eventTypes())
}

func TestContext_RecordItem(t *testing.T) {
	t.Parallel()

	obs := NewMockObserver()
	ctx := NewContext(context.Background(), &config.Config{}, nil, obs, "run-1")

	ctx.RecordItem("nodes", ItemResult{Kind: KindNode, Name: "impact", Outcome: OutcomeSkipped, Detail: "no match"})

	require.Len(t, ctx.State.Items, 1)
	assert.Equal(t, OutcomeSkipped, ctx.State.Items[0].Outcome)
	require.Len(t, obs.events, 1)
	assert.Equal(t, EventItemSkipped, obs.events[0].Type)
	assert.Equal(t, "impact", obs.events[0].Item)
}
