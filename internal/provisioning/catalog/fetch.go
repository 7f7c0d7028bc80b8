package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/util/jsondoc"
	"github.com/comfyup/comfyup/internal/util/poll"
)

// Listing paths, relative to the API base.
const (
	PathNodeList          = "/customnode/getlist?mode=cache&skip_update=true"
	PathExternalModelList = "/externalmodel/getlist?mode=cache&skip_update=true"
	PathModelList         = "/model/getlist?mode=cache&skip_update=true"
	PathNodeVersions      = "/customnode/versions/"
)

// modelListPaths are tried in order; the first usable listing wins.
var modelListPaths = []string{PathExternalModelList, PathModelList}

// Getter issues GET requests against a workload. Implemented by comfy.Client.
type Getter interface {
	Get(ctx context.Context, url string) (*comfy.Response, error)
	APIURL(path string) string
}

// Fetcher reads catalog listings from a workload.
type Fetcher struct {
	client   Getter
	observer provisioning.Observer
}

// NewFetcher creates a Fetcher.
func NewFetcher(client Getter, observer provisioning.Observer) *Fetcher {
	return &Fetcher{client: client, observer: observer}
}

// Nodes fetches the custom node catalog. The manager answers with a
// custom_nodes array, a node_packs map keyed by id, or a bare array.
func (f *Fetcher) Nodes(ctx context.Context) ([]Entry, error) {
	resp, err := f.client.Get(ctx, f.client.APIURL(PathNodeList))
	if err != nil {
		return nil, fmt.Errorf("customnode getlist: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("customnode getlist failed: %d %s", resp.StatusCode, resp.Text())
	}
	return ParseNodes(resp.Body)
}

// ParseNodes decodes a node listing body.
func ParseNodes(body []byte) ([]Entry, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse customnode getlist: %w", err)
	}

	switch t := data.(type) {
	case []any:
		return jsondoc.ObjectsOf(t), nil
	case map[string]any:
		doc := jsondoc.Doc(t)
		if doc.Has("custom_nodes") {
			entries, _ := doc.Objects("custom_nodes")
			return entries, nil
		}
		if doc.Has("node_packs") {
			packs, _ := doc.Object("node_packs")
			var raw map[string]json.RawMessage
			_ = json.Unmarshal(body, &raw)
			return packEntries(packs, objectKeys(raw["node_packs"])), nil
		}
	}
	return nil, fmt.Errorf("unexpected customnode getlist shape")
}

// packEntries flattens a node_packs map in the order its keys were sent,
// injecting each key as the id.
func packEntries(packs jsondoc.Doc, order []string) []Entry {
	out := make([]Entry, 0, len(packs))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if seen[k] {
			continue
		}
		seen[k] = true
		m, ok := packs[k].(map[string]any)
		if !ok {
			continue
		}
		e := jsondoc.Doc(m).Clone()
		e["id"] = k
		out = append(out, e)
	}
	return out
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		k, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, k)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

// Models fetches the model catalog from the first listing endpoint that
// returns a models array or a bare array.
func (f *Fetcher) Models(ctx context.Context) ([]Entry, error) {
	for _, path := range modelListPaths {
		resp, err := f.client.Get(ctx, f.client.APIURL(path))
		if err != nil || !resp.OK() {
			continue
		}
		if entries, ok := ParseModels(resp.Body); ok {
			return entries, nil
		}
	}
	return nil, fmt.Errorf("models getlist returned no usable result")
}

// ParseModels decodes a model listing body.
func ParseModels(body []byte) ([]Entry, bool) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false
	}
	switch t := data.(type) {
	case []any:
		return jsondoc.ObjectsOf(t), true
	case map[string]any:
		return jsondoc.Doc(t).Objects("models")
	}
	return nil, false
}

// NodeLatestVersion returns the version of the most recently created
// release of slug. Any failure yields "".
func (f *Fetcher) NodeLatestVersion(ctx context.Context, slug string) string {
	resp, err := f.client.Get(ctx, f.client.APIURL(PathNodeVersions+url.PathEscape(slug)))
	if err != nil || !resp.OK() {
		return ""
	}
	var arr []any
	if err := json.Unmarshal(resp.Body, &arr); err != nil {
		return ""
	}
	versions := jsondoc.ObjectsOf(arr)
	if len(versions) == 0 {
		return ""
	}
	// createdAt is an ISO timestamp, so string order is time order.
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].String("createdAt") > versions[j].String("createdAt")
	})
	return strings.TrimSpace(versions[0].String("version"))
}

// WaitModelInstalled polls the model catalog until filename shows a truthy
// installed flag. Listing errors are tolerated. A timeout returns false.
func (f *Fetcher) WaitModelInstalled(ctx context.Context, filename string, interval, timeout time.Duration) (bool, error) {
	lastNote := time.Now()
	return poll.Until(ctx, poll.Fixed(interval, timeout), func(ctx context.Context, _ int) (bool, error) {
		entries, err := f.Models(ctx)
		if err == nil && modelInstalled(entries, filename) {
			return true, nil
		}
		if time.Since(lastNote) > 10*time.Second {
			f.observer.Printf("[models] waiting for %s ...", filename)
			lastNote = time.Now()
		}
		return false, ctx.Err()
	})
}

func modelInstalled(entries []Entry, filename string) bool {
	for _, e := range entries {
		if strings.EqualFold(e.String("filename"), filename) && e.Bool("installed") {
			return true
		}
	}
	return false
}
