package catalog

import (
	"errors"
	"strings"

	"github.com/comfyup/comfyup/internal/util/jsondoc"
)

// ErrNoMatch is returned when no catalog entry was accepted for a query.
var ErrNoMatch = errors.New("no catalog match")

// Entry is one catalog item as served by the manager.
type Entry = jsondoc.Doc

// MatchResult is the outcome of resolving a query.
type MatchResult struct {
	// Entry is nil when nothing was accepted.
	Entry Entry
	// Score is a confidence signal, not a probability. It is reported even
	// when Entry is nil.
	Score int
}

// Matched reports whether an entry was accepted.
func (r MatchResult) Matched() bool {
	return r.Entry != nil
}

// Repository returns the entry's source repository.
func Repository(e Entry) string {
	return e.String("repository", "repo")
}

// Slug is the install id of a node: the id (or title) lowercased with
// spaces replaced by dashes.
func Slug(e Entry) string {
	s := strings.ToLower(strings.TrimSpace(e.String("id", "title")))
	return strings.ReplaceAll(s, " ", "-")
}

// NotInstalled reports whether a node entry looks worth installing.
func NotInstalled(e Entry) bool {
	state := jsondoc.Normalize(e.String("state"))
	if state == "not-installed" {
		return true
	}
	return state == "" && !e.Bool("installed", "is_installed")
}
