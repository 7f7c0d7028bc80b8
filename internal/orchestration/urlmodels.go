package orchestration

import (
	"time"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/install"
	"github.com/comfyup/comfyup/internal/provisioning/workflow"
)

const urlModelStep = "nonwhite"

// urlModelPhase installs models that are not in the manager catalog. Each
// model goes through the manager URL endpoints first; the downloader
// workflow is used only when none of them accepted it.
type urlModelPhase struct{}

func newURLModelPhase() *urlModelPhase {
	return &urlModelPhase{}
}

func (p *urlModelPhase) Name() string {
	return "url-models"
}

func (p *urlModelPhase) Provision(ctx *provisioning.Context) error {
	models := ctx.Config.URLModels
	if len(models) == 0 {
		ctx.Observer.Printf("[%s] No URL models requested", urlModelStep)
		return nil
	}

	coordinator := install.FromContext(ctx)
	tracker := workflow.NewTracker(ctx.Client, coordinator, ctx.Observer, workflow.Options{
		Timeouts: ctx.Timeouts,
		Metrics:  ctx.Metrics,
		ClientID: "comfyup-" + ctx.State.RunID,
	})

	for i, m := range models {
		ctx.Observer.Progress(p.Name(), i+1, len(models))
		start := time.Now()
		item := p.installOne(ctx, coordinator, tracker, m)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		item.Duration = time.Since(start)
		ctx.RecordItem(urlModelStep, item)
	}
	return nil
}

func (p *urlModelPhase) installOne(ctx *provisioning.Context, c *install.Coordinator, tracker *workflow.Tracker, m config.URLModel) provisioning.ItemResult {
	res, err := c.InstallFromURL(ctx, m)
	if err != nil || res.Accepted {
		if err != nil {
			ctx.Observer.Warnf("[%s] %s: %v", urlModelStep, m.Filename, err)
		}
		return install.ItemResult(provisioning.KindURLModel, m.Filename, res.Result, err, 0)
	}

	ctx.Observer.Printf("[%s] Falling back to %s workflow ...", urlModelStep, workflow.DownloaderClass)
	dl, err := tracker.RunDownloader(ctx, m, ctx.Config.Downloader)

	item := provisioning.ItemResult{
		Kind:  provisioning.KindURLModel,
		Name:  m.Filename,
		Match: workflow.DownloaderClass,
	}
	switch {
	case err != nil:
		ctx.Observer.Warnf("[%s] %s: %v", urlModelStep, m.Filename, err)
		item.Outcome = provisioning.OutcomeFailed
		item.Detail = err.Error()
	case dl.OK():
		item.Outcome = provisioning.OutcomeInstalled
	case dl.Run.State == workflow.Error:
		item.Outcome = provisioning.OutcomeFailed
		item.Detail = "downloader workflow reported an error"
	default:
		item.Outcome = provisioning.OutcomeTimeout
		item.Detail = "downloader did not finish in time"
	}
	return item
}
