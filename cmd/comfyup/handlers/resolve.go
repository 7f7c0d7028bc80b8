package handlers

import (
	"context"
	"fmt"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/catalog"
)

// resolution is the catalog match of one run file query.
type resolution struct {
	Kind  provisioning.ItemKind
	Query string
	Match catalog.MatchResult
}

// Name is the install name of the matched entry, or "".
func (r resolution) Name() string {
	if !r.Match.Matched() {
		return ""
	}
	if r.Kind == provisioning.KindNode {
		return catalog.Slug(r.Match.Entry)
	}
	return r.Match.Entry.String("filename", "name")
}

// Resolve matches the node and model queries of a run file against the
// catalog of a running workload and prints the result. Nothing is
// installed.
func Resolve(ctx context.Context, configPath, node string, logOpts LogOptions) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	observer := newObserver(logOpts)
	w := workloadFor(node, "")
	client := comfy.NewClient(
		comfy.Endpoints{APIBase: w.APIBase, RootBase: w.RootBase},
		comfy.Credentials{APIKey: cfg.APIKey, UserKey: cfg.UserKey},
	)

	resolutions, err := resolveAll(ctx, catalog.NewFetcher(client, observer), cfg)
	if err != nil {
		return err
	}

	fmt.Fprint(output, renderResolutions(w.Node, resolutions))
	return nil
}

func resolveAll(ctx context.Context, fetcher *catalog.Fetcher, cfg *config.Config) ([]resolution, error) {
	var out []resolution

	if len(cfg.Nodes) > 0 {
		nodes, err := fetcher.Nodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch node catalog: %w", err)
		}
		for _, q := range cfg.Nodes {
			out = append(out, resolution{Kind: provisioning.KindNode, Query: q, Match: catalog.ResolveNode(nodes, q)})
		}
	}

	if len(cfg.Models) > 0 {
		models, err := fetcher.Models(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch model catalog: %w", err)
		}
		for _, q := range cfg.Models {
			out = append(out, resolution{Kind: provisioning.KindModel, Query: q, Match: catalog.ResolveModel(models, q)})
		}
	}

	return out, nil
}
