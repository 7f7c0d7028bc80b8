package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/comfyup/comfyup/internal/config"
)

// Downloader graph constants.
const (
	DownloaderNodeID = "20"
	DownloaderClass  = "DaimalyadModelDownloader"
	DownloaderTitle  = "Model Downloader by DaimAlYad"
)

// DownloaderGraph builds a one-node graph that downloads m into the models
// folder.
func DownloaderGraph(m config.URLModel, d config.DownloaderConfig) map[string]any {
	d = d.WithDefaults()
	return map[string]any{
		DownloaderNodeID: map[string]any{
			"inputs": map[string]any{
				"url":        strings.TrimSpace(m.URL),
				"subfolder":  strings.TrimSpace(m.Subfolder),
				"filename":   strings.TrimSpace(m.Filename),
				"overwrite":  d.ShouldOverwrite(),
				"sha256":     strings.TrimSpace(m.SHA256),
				"timeout_s":  d.TimeoutS,
				"retries":    d.Retries,
				"user_agent": d.UserAgent,
			},
			"class_type": DownloaderClass,
			"_meta":      map[string]any{"title": DownloaderTitle},
		},
	}
}

// DownloadResult is the outcome of a downloader run.
type DownloadResult struct {
	// Run is the tracked prompt. Run.ID is empty when the submission
	// returned no id and only the queue was watched.
	Run Run
	// Drained is true when the queue was seen idle afterwards.
	Drained bool
}

// OK reports whether the download can be considered finished. Without a
// run id only the queue drain is known.
func (r DownloadResult) OK() bool {
	if r.Run.ID == "" {
		return r.Drained
	}
	return r.Run.State == Success && r.Drained
}

// RunDownloader submits the downloader graph for m and waits for it.
//
// With a run id, the run is tracked to a terminal state and the queue must
// also drain. Without one, queue idle is the only signal available.
func (t *Tracker) RunDownloader(ctx context.Context, m config.URLModel, d config.DownloaderConfig) (DownloadResult, error) {
	if err := m.Validate(); err != nil {
		return DownloadResult{}, fmt.Errorf("downloader: %w", err)
	}

	id, err := t.Submit(ctx, DownloaderGraph(m, d))
	if err != nil {
		return DownloadResult{}, fmt.Errorf("downloader: %w", err)
	}

	var res DownloadResult
	if id == "" {
		t.observer.Warnf("[workflow] no prompt_id returned; falling back to queue idle only")
		t.client.StartQueue(ctx)
		res.Drained, err = t.queue.WaitIdle(ctx, t.timeouts.URLModelInstall)
		if err != nil {
			return res, err
		}
		t.observer.Printf("[downloader] %s for %s (no prompt_id)", okOrTimeout(res.OK()), m.Filename)
		return res, nil
	}

	t.client.StartQueue(ctx)
	res.Run, err = t.Wait(ctx, id, t.timeouts.Workflow)
	if err != nil {
		return res, err
	}
	res.Drained, err = t.queue.WaitIdle(ctx, t.timeouts.Drain)
	if err != nil {
		return res, err
	}
	t.observer.Printf("[downloader] %s for %s", okOrTimeout(res.OK()), m.Filename)
	return res, nil
}

func okOrTimeout(ok bool) string {
	if ok {
		return "OK"
	}
	return "timeout"
}
