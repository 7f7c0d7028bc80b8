package catalog

import (
	"strings"

	"github.com/comfyup/comfyup/internal/util/jsondoc"
)

// Node scores.
const (
	NodeExactScore      = 10000
	NodeIDScore         = 400
	NodeTitleScore      = 350
	NodeRepositoryScore = 250
	NodeStateBonus      = 50
)

// Model scores.
const (
	ModelExactScore    = 1000
	ModelFilenameScore = 400
	ModelNameScore     = 300
	ModelStateBonus    = 50

	// ModelAcceptanceFloor is the lowest score a model match may have.
	ModelAcceptanceFloor = 250

	disqualified = -1
)

// ResolveNode picks the best-scoring node for query. Nodes have no
// acceptance floor: the best entry is returned however weak the match,
// and only an empty catalog yields no entry.
func ResolveNode(entries []Entry, query string) MatchResult {
	q := jsondoc.Normalize(query)
	best := MatchResult{Score: disqualified}
	for _, e := range entries {
		if s := scoreNode(e, q); s > best.Score {
			best = MatchResult{Entry: e, Score: s}
		}
	}
	return best
}

func scoreNode(e Entry, q string) int {
	id := jsondoc.Normalize(e.String("id"))
	title := jsondoc.Normalize(e.String("title"))
	repo := jsondoc.Normalize(e.String("repository", "repo", "pkg_name"))

	score := 0
	if id == q || title == q {
		score = NodeExactScore
	} else if q != "" {
		if strings.Contains(id, q) {
			score += NodeIDScore
		}
		if strings.Contains(title, q) {
			score += NodeTitleScore
		}
		if strings.Contains(repo, q) {
			score += NodeRepositoryScore
		}
	}
	if NotInstalled(e) {
		score += NodeStateBonus
	}
	return score
}

// ResolveModel picks the best-scoring model for query. A query containing
// a dot is treated as a filename: entries whose filename neither equals
// nor contains it are disqualified. Results below ModelAcceptanceFloor
// carry no entry.
func ResolveModel(entries []Entry, query string) MatchResult {
	q := jsondoc.Normalize(query)
	best := MatchResult{Score: disqualified}
	for _, e := range entries {
		if s := scoreModel(e, q); s > best.Score {
			best = MatchResult{Entry: e, Score: s}
		}
	}
	if best.Score < ModelAcceptanceFloor {
		best.Entry = nil
	}
	return best
}

func scoreModel(e Entry, q string) int {
	filename := jsondoc.Normalize(e.String("filename"))
	name := jsondoc.Normalize(e.String("name"))

	if filename == q || name == q {
		return ModelExactScore
	}

	score := 0
	if q != "" && strings.Contains(filename, q) {
		score += ModelFilenameScore
	}
	if q != "" && strings.Contains(name, q) {
		score += ModelNameScore
	}
	if !e.Bool("installed") {
		score += ModelStateBonus
	}
	if strings.Contains(q, ".") && !strings.Contains(filename, q) {
		score = disqualified
	}
	return score
}
