package install

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comfyup/comfyup/internal/provisioning/catalog"
	"github.com/comfyup/comfyup/internal/util/jsondoc"
)

// InstallNode resolves query against the node catalog and installs the
// best match. It returns catalog.ErrNoMatch when the catalog is empty.
func (c *Coordinator) InstallNode(ctx context.Context, query string) (Result, error) {
	nodes, err := c.catalog.Nodes(ctx)
	if err != nil {
		return Result{}, err
	}

	match := catalog.ResolveNode(nodes, query)
	if !match.Matched() {
		return Result{Score: match.Score}, fmt.Errorf("node %q: %w", query, catalog.ErrNoMatch)
	}
	picked := match.Entry

	slug := catalog.Slug(picked)
	c.observer.Printf("[nodes] %q -> id=%q title=%q repo=%q score=%d",
		query, slug, picked.String("title"), catalog.Repository(picked), match.Score)

	tag := c.catalog.NodeLatestVersion(ctx, slug)
	body, err := json.Marshal(CatalogPayload(picked, slug, tag))
	if err != nil {
		return Result{}, fmt.Errorf("marshal node payload: %w", err)
	}

	out, err := c.installViaQueue(ctx, Request{
		Operation:   "nodes",
		Path:        PathQueueInstall,
		Body:        body,
		IdleTimeout: c.timeouts.QueueIdle,
	})
	if err != nil {
		return Result{Match: slug, Score: match.Score}, err
	}
	c.observer.Printf("[nodes] install %s for %q", okOrTimeout(out.done()), picked.String("title"))
	return resultOf(slug, match.Score, out), nil
}

// CatalogPayload builds the single-object install payload the manager GUI
// sends for a node. Empty strings, nils, empty lists and empty objects are
// pruned; false and 0 are kept.
func CatalogPayload(picked catalog.Entry, slug, latestTag string) jsondoc.Doc {
	repo := catalog.Repository(picked)

	var files []any
	if repo != "" {
		files = []any{repo}
	}

	entry := jsondoc.Doc{
		"author":            valueOr(picked, "author", ""),
		"title":             valueOr(picked, "title", ""),
		"id":                slug,
		"install_type":      firstNonEmpty(picked.String("install_type"), "git-clone"),
		"repository":        repo,
		"reference":         firstNonEmpty(picked.String("reference"), repo),
		"files":             files,
		"channel":           "default",
		"mode":              "cache",
		"selected_version":  "latest",
		"skip_post_install": false,
		"state":             "not-installed",
		"trust":             true,
		"ui_id":             valueOr(picked, "ui_id", ""),
		"version":           firstNonEmpty(picked.String("version"), latestTag),
		"cnr_latest":        firstNonEmpty(picked.String("cnr_latest"), latestTag),
		"last_update":       valueOr(picked, "last_update", ""),
		"stars":             valueOr(picked, "stars", 0),
		"health":            valueOr(picked, "health", "-"),
		"description":       valueOr(picked, "description", ""),
		"is_favorite":       isSet(picked["is_favorite"]),
		"preemptions":       valueOr(picked, "preemptions", []any{}),
		"update-state":      valueOr(picked, "update-state", "false"),
	}

	for k, v := range entry {
		if jsondoc.IsEmpty(v) {
			delete(entry, k)
		}
	}
	return entry
}

// valueOr returns the raw value of key, or def when key is absent.
func valueOr(e catalog.Entry, key string, def any) any {
	if v, ok := e[key]; ok {
		return v
	}
	return def
}

// isSet mirrors a loose boolean conversion: non-empty and non-zero values
// are true.
func isSet(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	}
	return !jsondoc.IsEmpty(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func okOrTimeout(ok bool) string {
	if ok {
		return "OK"
	}
	return "timeout"
}
