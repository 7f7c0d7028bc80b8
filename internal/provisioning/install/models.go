package install

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comfyup/comfyup/internal/provisioning/catalog"
)

// InstallModel resolves query against the model catalog and installs the
// match by passing the picked entry through unchanged. Matches below the
// acceptance floor return catalog.ErrNoMatch.
//
// Once the queue drains, the catalog is polled briefly for the file to be
// flagged installed. A miss is only a warning.
func (c *Coordinator) InstallModel(ctx context.Context, query string) (Result, error) {
	models, err := c.catalog.Models(ctx)
	if err != nil {
		return Result{}, err
	}

	match := catalog.ResolveModel(models, query)
	if !match.Matched() {
		return Result{Score: match.Score}, fmt.Errorf("model %q (best score %d): %w", query, match.Score, catalog.ErrNoMatch)
	}
	picked := match.Entry

	base := strings.TrimSpace(picked.String("base"))
	savePath := strings.TrimSpace(picked.String("save_path"))
	filename := strings.TrimSpace(picked.String("filename"))
	if base == "" || savePath == "" || filename == "" {
		return Result{Score: match.Score}, fmt.Errorf("matched model entry missing base/save_path/filename: name=%q", picked.String("name"))
	}

	c.observer.Printf("[models] %q -> name=%q filename=%q base=%q save_path=%q",
		query, picked.String("name"), filename, base, savePath)

	body, err := json.Marshal(picked)
	if err != nil {
		return Result{}, fmt.Errorf("marshal model payload: %w", err)
	}

	out, err := c.installViaQueue(ctx, Request{
		Operation:   "models",
		Path:        PathQueueInstallModel,
		Body:        body,
		IdleTimeout: c.timeouts.ModelInstall,
	})
	if err != nil {
		return Result{Match: filename, Score: match.Score}, err
	}

	if out.done() {
		confirmed, err := c.catalog.WaitModelInstalled(ctx, filename, c.timeouts.QueuePoll, c.timeouts.ModelConfirm)
		if err != nil {
			return Result{Match: filename, Score: match.Score}, err
		}
		if !confirmed {
			c.observer.Warnf("[models] %s not yet listed as installed", filename)
		}
	}
	c.observer.Printf("[models] install %s for %q", okOrTimeout(out.done()), filename)
	return resultOf(filename, match.Score, out), nil
}
