package install

import (
	"context"
	"fmt"
	"path"

	"github.com/comfyup/comfyup/internal/config"
)

// URL install endpoints tried in order, relative to the API base.
var URLInstallPaths = []string{
	"/externalmodel/install_url",
	"/model/install_url",
	"/externalmodel/add_by_url",
	"/model/add_by_url",
}

// ModelsRoot is where the manager keeps model folders.
const ModelsRoot = "/app/ComfyUI/models"

// URLCandidates returns the payload shapes tried against each endpoint:
// one addressing the subfolder, one addressing the absolute save path.
func URLCandidates(m config.URLModel) []map[string]string {
	return []map[string]string{
		{"url": m.URL, "filename": m.Filename, "subfolder": m.Subfolder, "sha256": m.SHA256},
		{"url": m.URL, "filename": m.Filename, "save_path": path.Join(ModelsRoot, m.Subfolder), "sha256": m.SHA256},
	}
}

// URLResult is the outcome of InstallFromURL. Accepted is false when no
// endpoint took any payload shape; only then should a caller fall back to
// another install route.
type URLResult struct {
	Result
	// LastError describes the last rejected candidate.
	LastError string
}

// InstallFromURL installs a model that is not in the manager whitelist by
// trying every payload shape against every URL install endpoint. The queue
// is reset once up front; the first 200 starts the queue and waits for it
// to drain.
func (c *Coordinator) InstallFromURL(ctx context.Context, m config.URLModel) (URLResult, error) {
	if err := m.Validate(); err != nil {
		return URLResult{}, fmt.Errorf("url model %q: %w", m.Filename, err)
	}
	c.observer.Printf("[nonwhite] Manager-URL install -> %s into /models/%s", m.Filename, m.Subfolder)

	c.client.ResetQueue(ctx)

	var lastErr string
	for _, p := range URLInstallPaths {
		endpoint := c.client.APIURL(p)
		for _, payload := range URLCandidates(m) {
			resp, err := c.client.PostJSON(ctx, endpoint, payload)
			if err != nil {
				if ctx.Err() != nil {
					return URLResult{}, ctx.Err()
				}
				lastErr = fmt.Sprintf("%s -> %v", p, err)
				continue
			}
			if !resp.OK() {
				lastErr = fmt.Sprintf("%s -> %d %s", p, resp.StatusCode, truncate(resp.Text(), 260))
				continue
			}

			c.client.StartQueue(ctx)
			idle, err := c.WaitIdle(ctx, c.timeouts.URLModelInstall)
			if err != nil {
				return URLResult{Result: Result{Match: p, Accepted: true}}, err
			}
			c.observer.Printf("[nonwhite] %s: %s via %s", m.Filename, okOrTimeout(idle), p)
			return URLResult{Result: resultOf(p, 0, queueOutcome{accepted: true, idle: idle})}, nil
		}
	}

	c.observer.Warnf("[nonwhite] Manager-URL methods failed for %s. Last err: %s", m.Filename, lastErr)
	return URLResult{
		Result:    Result{Detail: "no URL install endpoint accepted the model"},
		LastError: lastErr,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
