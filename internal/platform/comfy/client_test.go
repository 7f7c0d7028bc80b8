package comfy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyup/comfyup/internal/metrics"
)

func TestClient_AttachesCredentials(t *testing.T) {
	t.Parallel()
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Endpoints{APIBase: srv.URL + "/api", RootBase: srv.URL}, Credentials{APIKey: "c3_api_test"})
	resp, err := c.Get(context.Background(), c.APIURL("/queue"))
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, "/api/queue", got.URL.Path)
	assert.Equal(t, "Bearer c3_api_test", got.Header.Get("Authorization"))
	assert.Equal(t, "c3_api_test", got.Header.Get("comfy-user"))
	assert.Equal(t, "c3_api_test", got.Header.Get("X-C3-API-KEY"))
	cookie, err := got.Cookie("c3_api_key")
	require.NoError(t, err)
	assert.Equal(t, "c3_api_test", cookie.Value)
}

func TestClient_SeparateUserKey(t *testing.T) {
	t.Parallel()
	var auth, apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		apiKey = r.Header.Get("X-C3-API-KEY")
	}))
	defer srv.Close()

	c := NewClient(Endpoints{APIBase: srv.URL}, Credentials{APIKey: "api", UserKey: "user"})
	_, err := c.Get(context.Background(), c.APIURL("x"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer user", auth)
	assert.Equal(t, "api", apiKey)
}

func TestClient_PostBodiesAndContentType(t *testing.T) {
	t.Parallel()
	type seen struct {
		contentType string
		body        string
	}
	var requests []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		requests = append(requests, seen{r.Header.Get("Content-Type"), string(b)})
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("warming up"))
	}))
	defer srv.Close()

	c := NewClient(Endpoints{APIBase: srv.URL}, Credentials{APIKey: "k"})

	resp, err := c.Post(context.Background(), c.APIURL("/customnode/install/git_url"), []byte("https://github.com/a/b"), ContentTypeText)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "warming up", resp.Text())

	_, err = c.PostJSON(context.Background(), c.APIURL("/customnode/install/git_url"), map[string]string{"url": "https://github.com/a/b"})
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, ContentTypeText, requests[0].contentType)
	assert.Equal(t, "https://github.com/a/b", requests[0].body)
	assert.Equal(t, ContentTypeJSON, requests[1].contentType)
	assert.JSONEq(t, `{"url":"https://github.com/a/b"}`, requests[1].body)
}

func TestClient_TransportErrorRecordsCodeZero(t *testing.T) {
	t.Parallel()
	rec := metrics.NewRecorder()
	c := NewClient(Endpoints{APIBase: "http://127.0.0.1:1"}, Credentials{}, WithMetrics(rec))

	resp, err := c.Get(context.Background(), c.APIURL("/queue"))
	assert.Nil(t, resp)
	require.Error(t, err)

	status, body, serr := Status(resp, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, body)
	assert.Error(t, serr)
}

func TestJoinURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://ui-a/api/queue", joinURL("https://ui-a/api/", "/queue"))
	assert.Equal(t, "https://ui-a/prompt", joinURL("https://ui-a", "prompt"))
	assert.Equal(t, "https://ui-a", joinURL("https://ui-a", ""))
}
