package install

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyup/comfyup/internal/config"
	testutil "github.com/comfyup/comfyup/internal/testing"
)

var loraModel = config.URLModel{
	URL:       "https://huggingface.co/org/repo/resolve/main/detail.safetensors",
	Filename:  "detail.safetensors",
	Subfolder: "loras",
}

func TestURLCandidates(t *testing.T) {
	t.Parallel()

	got := URLCandidates(loraModel)

	require.Len(t, got, 2)
	assert.Equal(t, "loras", got[0]["subfolder"])
	assert.NotContains(t, got[0], "save_path")
	assert.Equal(t, "/app/ComfyUI/models/loras", got[1]["save_path"])
	assert.NotContains(t, got[1], "subfolder")
}

func TestInstallFromURL_TriesCandidatesInOrder(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t).Idle()
	m.On(http.MethodPost, testutil.RouteExternalModelURL, testutil.Status(404))
	m.On(http.MethodPost, testutil.RouteModelURL, testutil.JSON(400, `{"error": "subfolder unsupported"}`), testutil.Status(200))
	c, _ := newCoordinator(t, m)

	res, err := c.InstallFromURL(testutil.TestContext(t), loraModel)

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.Done)
	assert.Equal(t, "/model/install_url", res.Match)

	assert.Equal(t, []string{
		"GET " + testutil.RouteQueueReset,
		"POST " + testutil.RouteExternalModelURL,
		"POST " + testutil.RouteExternalModelURL,
		"POST " + testutil.RouteModelURL,
		"POST " + testutil.RouteModelURL,
		"GET " + testutil.RouteQueueStart,
		"GET " + testutil.RouteQueueStatus,
	}, m.Sequence())

	var accepted map[string]string
	require.NoError(t, json.Unmarshal([]byte(m.Requests(http.MethodPost, testutil.RouteModelURL)[1].Body), &accepted))
	assert.Equal(t, "/app/ComfyUI/models/loras", accepted["save_path"])
}

func TestInstallFromURL_NoEndpointAccepts(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	m.On(http.MethodPost, testutil.RouteModelAdd, testutil.JSON(500, `{"error": "boom"}`))
	c, obs := newCoordinator(t, m)

	res, err := c.InstallFromURL(testutil.TestContext(t), loraModel)

	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.False(t, res.Done)
	assert.Contains(t, res.LastError, "/model/add_by_url -> 500")
	assert.Equal(t, 1, m.Count(http.MethodGet, testutil.RouteQueueReset))
	assert.Zero(t, m.Count(http.MethodGet, testutil.RouteQueueStart))
	assert.Len(t, m.Requests("", ""), 9, "one reset and eight posts")
	assert.True(t, obs.HasWarning("Manager-URL methods failed"))
}

func TestInstallFromURL_AcceptedButNotDrained(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	m.On(http.MethodPost, testutil.RouteExternalModelURL, testutil.Status(200))
	m.On(http.MethodGet, testutil.RouteQueueStatus, testutil.JSON(200, busy))
	c, _ := newCoordinator(t, m)

	res, err := c.InstallFromURL(testutil.TestContext(t), loraModel)

	require.NoError(t, err)
	assert.True(t, res.Accepted, "an accepted install never falls back")
	assert.False(t, res.Done)
}

func TestInstallFromURL_InvalidModel(t *testing.T) {
	t.Parallel()

	m := testutil.NewManager(t)
	c, _ := newCoordinator(t, m)

	_, err := c.InstallFromURL(testutil.TestContext(t), config.URLModel{URL: "https://x/y", Filename: "y"})

	require.Error(t, err)
	assert.Empty(t, m.Requests("", ""))
}
