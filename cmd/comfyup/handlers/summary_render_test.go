package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/catalog"
	"github.com/comfyup/comfyup/internal/report"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rep := &report.Report{
		RunID:      "r-1",
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
		Workload:   &report.Workload{ID: "w-1", Node: "node-1", RootBase: "https://ui-node-1"},
		Ready:      true,
		Items: []provisioning.ItemResult{
			{Kind: provisioning.KindNode, Name: "impact pack", Outcome: provisioning.OutcomeInstalled, Match: "comfyui-impact-pack"},
			{Kind: provisioning.KindModel, Name: "flux", Outcome: provisioning.OutcomeSkipped, Detail: "no catalog match"},
		},
		Counts: map[provisioning.Outcome]int{provisioning.OutcomeInstalled: 1, provisioning.OutcomeSkipped: 1},
	}

	out := renderSummary(rep)

	assert.Contains(t, out, "comfyup run r-1")
	assert.Contains(t, out, "w-1 on node-1")
	assert.Contains(t, out, "https://ui-node-1")
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, "-> comfyui-impact-pack")
	assert.Contains(t, out, "no catalog match")
	assert.Contains(t, out, "1 installed")
	assert.Contains(t, out, "0 failed")
	assert.NotContains(t, out, "Run failed")
}

func TestRenderSummary_Failed(t *testing.T) {
	t.Parallel()

	out := renderSummary(&report.Report{RunID: "r-2", Error: "launch phase failed: no capacity"})

	assert.Contains(t, out, "Run failed: launch phase failed: no capacity")
	assert.NotContains(t, out, "Workload:")
	assert.NotContains(t, out, "Items")
}

func TestRenderResolutions(t *testing.T) {
	t.Parallel()

	out := renderResolutions("node-1", []resolution{
		{Kind: provisioning.KindNode, Query: "impact", Match: catalog.MatchResult{
			Entry: catalog.Entry{"id": "ComfyUI Impact Pack"}, Score: 400,
		}},
		{Kind: provisioning.KindModel, Query: "flux", Match: catalog.MatchResult{Score: 50}},
	})

	assert.Contains(t, out, "comfyup resolve: node-1")
	assert.Contains(t, out, "comfyui-impact-pack")
	assert.Contains(t, out, "(no match)")
}

func TestRenderResolutions_Empty(t *testing.T) {
	t.Parallel()

	assert.Contains(t, renderResolutions("node-1", nil), "No node or model queries")
}

func TestShorten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"much-too-long", 5, "much…"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shorten(tt.in, tt.n))
	}
}
