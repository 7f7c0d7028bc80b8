package testing

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/comfyup/comfyup/internal/platform/comfy"
)

// Route templates served by Manager. The API routes live under /api; the
// root /prompt route mirrors deployments that route it outside the API.
const (
	RouteQueue             = "/api/queue"
	RouteCustomNodeList    = "/api/customnode/getlist"
	RouteExternalModelList = "/api/externalmodel/getlist"
	RouteModelList         = "/api/model/getlist"
	RouteNodeVersions      = "/api/customnode/versions/{id}"
	RouteQueueInstall      = "/api/manager/queue/install"
	RouteQueueInstallModel = "/api/manager/queue/install_model"
	RouteQueueReset        = "/api/manager/queue/reset"
	RouteQueueStart        = "/api/manager/queue/start"
	RouteQueueStatus       = "/api/manager/queue/status"
	RouteGitInstall        = "/api/customnode/install/git_url"
	RouteReboot            = "/api/manager/reboot"
	RoutePrompt            = "/api/prompt"
	RouteRootPrompt        = "/prompt"
	RouteHistory           = "/api/history/{id}"
	RouteExternalModelURL  = "/api/externalmodel/install_url"
	RouteModelURL          = "/api/model/install_url"
	RouteExternalModelAdd  = "/api/externalmodel/add_by_url"
	RouteModelAdd          = "/api/model/add_by_url"
)

var routes = []struct {
	method, template string
}{
	{http.MethodGet, RouteQueue},
	{http.MethodGet, RouteCustomNodeList},
	{http.MethodGet, RouteExternalModelList},
	{http.MethodGet, RouteModelList},
	{http.MethodGet, RouteNodeVersions},
	{http.MethodPost, RouteQueueInstall},
	{http.MethodPost, RouteQueueInstallModel},
	{http.MethodGet, RouteQueueReset},
	{http.MethodGet, RouteQueueStart},
	{http.MethodGet, RouteQueueStatus},
	{http.MethodPost, RouteGitInstall},
	{http.MethodGet, RouteReboot},
	{http.MethodPost, RoutePrompt},
	{http.MethodPost, RouteRootPrompt},
	{http.MethodGet, RouteHistory},
	{http.MethodPost, RouteExternalModelURL},
	{http.MethodPost, RouteModelURL},
	{http.MethodPost, RouteExternalModelAdd},
	{http.MethodPost, RouteModelAdd},
}

// Reply is one scripted response.
type Reply struct {
	Status int
	Body   string
}

// JSON is a Reply with a JSON body.
func JSON(status int, body string) Reply {
	return Reply{Status: status, Body: body}
}

// Status is a Reply with an empty body.
func Status(status int) Reply {
	return Reply{Status: status}
}

// Request is one request received by the Manager.
type Request struct {
	Method      string
	Route       string
	Path        string
	Query       string
	Vars        map[string]string
	ContentType string
	Header      http.Header
	Body        string
}

// Handler computes a reply from the request. n counts prior calls to the
// same route, starting at zero.
type Handler func(req Request, n int) Reply

type script struct {
	replies []Reply
	handler Handler
	calls   int
}

// Manager is a fake ComfyUI manager. Each route replies from its script;
// the last scripted reply repeats. Unscripted routes answer 404.
type Manager struct {
	Server *httptest.Server

	mu       sync.Mutex
	scripts  map[string]*script
	requests []Request
}

// NewManager starts a fake manager that is closed when t finishes.
func NewManager(t *testing.T) *Manager {
	t.Helper()
	m := &Manager{scripts: make(map[string]*script)}

	r := mux.NewRouter()
	for _, rt := range routes {
		r.HandleFunc(rt.template, m.serve(rt.template)).Methods(rt.method)
	}
	r.NotFoundHandler = m.serve("")
	r.MethodNotAllowedHandler = m.serve("")

	m.Server = httptest.NewServer(r)
	t.Cleanup(m.Server.Close)
	return m
}

func key(method, route string) string {
	return method + " " + route
}

// On scripts the replies of a route.
func (m *Manager) On(method, route string, replies ...Reply) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[key(method, route)] = &script{replies: replies}
	return m
}

// OnFunc scripts a route with a handler.
func (m *Manager) OnFunc(method, route string, h Handler) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[key(method, route)] = &script{handler: h}
	return m
}

// Ready scripts /queue and one catalog listing to answer 200.
func (m *Manager) Ready() *Manager {
	m.On(http.MethodGet, RouteQueue, JSON(200, `{"queue_running": [], "queue_pending": []}`))
	return m.On(http.MethodGet, RouteCustomNodeList, JSON(200, `{"custom_nodes": []}`))
}

// Idle scripts the queue status to report an idle queue.
func (m *Manager) Idle() *Manager {
	return m.On(http.MethodGet, RouteQueueStatus, JSON(200, `{"is_processing": false, "in_progress_count": 0}`))
}

// Endpoints returns the fake's API and root bases.
func (m *Manager) Endpoints() comfy.Endpoints {
	return comfy.Endpoints{APIBase: m.Server.URL + "/api", RootBase: m.Server.URL}
}

// Client returns a comfy client pointed at the fake.
func (m *Manager) Client(opts ...comfy.Option) *comfy.Client {
	return comfy.NewClient(m.Endpoints(), comfy.Credentials{APIKey: "test-key"}, opts...)
}

// Requests returns the recorded requests to route, or all requests when
// route is empty.
func (m *Manager) Requests(method, route string) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, r := range m.requests {
		if route == "" || (r.Method == method && r.Route == route) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of requests to route.
func (m *Manager) Count(method, route string) int {
	return len(m.Requests(method, route))
}

// Sequence returns "METHOD route" for every recorded request, in order.
func (m *Manager) Sequence() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, key(r.Method, r.Route))
	}
	return out
}

func (m *Manager) serve(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req := Request{
			Method:      r.Method,
			Route:       route,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			Vars:        mux.Vars(r),
			ContentType: r.Header.Get("Content-Type"),
			Header:      r.Header.Clone(),
			Body:        string(body),
		}
		if route == "" {
			req.Route = r.URL.Path
		}

		m.mu.Lock()
		m.requests = append(m.requests, req)
		s := m.scripts[key(r.Method, route)]
		var reply Reply
		switch {
		case route == "" || s == nil:
			reply = Status(http.StatusNotFound)
		case s.handler != nil:
			n := s.calls
			s.calls++
			m.mu.Unlock()
			reply = s.handler(req, n)
			m.mu.Lock()
		case len(s.replies) == 0:
			reply = Status(http.StatusOK)
		default:
			i := s.calls
			if i >= len(s.replies) {
				i = len(s.replies) - 1
			}
			s.calls++
			reply = s.replies[i]
		}
		m.mu.Unlock()

		if reply.Status == 0 {
			reply.Status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.Status)
		_, _ = fmt.Fprint(w, reply.Body)
	}
}
