package core

import (
	"regexp"
	"strings"

	"acceptrec.co.uk/timesheets/timesheet/model"
	"github.com/agnivade/levenshtein"
)

// DefaultMinimumBillableHours applies when a client name cannot be resolved.
const DefaultMinimumBillableHours = 8.0

// minimumMatchScore is the score a fuzzy match has to exceed to resolve a client.
const minimumMatchScore = 0.5

var (
	punctuationPattern    = regexp.MustCompile(`[.,&'"()\[\]{}]`)
	conjunctionPattern    = regexp.MustCompile(`\band\b`)
	legalSuffixPattern    = regexp.MustCompile(`\b(inc|incorporated|ltd|limited|llc|corp|corporation|co|company|plc)\b`)
	leadingArticlePattern = regexp.MustCompile(`^(the|a|aa)\s+`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

// baseNormalize lower-cases, trims and replaces punctuation and the word "and" with spaces.
func baseNormalize(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = punctuationPattern.ReplaceAllString(s, " ")
	return conjunctionPattern.ReplaceAllString(s, " ")
}

func collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// NormalizeClientName is the strict normalizer used to resolve payroll minimums.
// On top of the base rules it drops legal-entity suffixes and a leading article.
func NormalizeClientName(name string) string {
	s := baseNormalize(name)
	s = legalSuffixPattern.ReplaceAllString(s, "")
	s = leadingArticlePattern.ReplaceAllString(s, "")
	return collapse(s)
}

// NormalizeClientNameLoose keeps suffixes and articles. It backs the permissive
// matching used when picking timesheets for an approval batch.
func NormalizeClientNameLoose(name string) string {
	return collapse(baseNormalize(name))
}

func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) > 1 {
			words = append(words, w)
		}
	}
	return words
}

// MatchScore scores two normalized names between 0 and 1. The first significant word
// of both names has to agree, otherwise the names are considered unrelated.
func MatchScore(a, b string) float64 {
	if a == b {
		return 1
	}
	wa, wb := significantWords(a), significantWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	if wa[0] != wb[0] {
		return 0
	}

	set := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		set[w] = struct{}{}
	}
	matching := 0
	for _, w := range wa {
		if _, ok := set[w]; ok {
			matching++
		}
	}
	return float64(matching) / float64(max(len(wa), len(wb)))
}

// ClientNamesOverlap is the loose matcher: substring containment either way after
// loose normalization. Blank names never overlap.
func ClientNamesOverlap(a, b string) bool {
	na, nb := NormalizeClientNameLoose(a), NormalizeClientNameLoose(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// ResolveClient finds the client record a free-text name refers to.
// Exact normalized matches win. Otherwise the highest score above 0.5 wins, with ties
// going to the smaller edit distance and then to the earlier candidate.
func ResolveClient(name string, clients []model.Client) *model.Client {
	return NewClientDirectory(clients).Resolve(name)
}

type directoryEntry struct {
	client     *model.Client
	normalized string
}

// ClientDirectory resolves free-text names against a fixed client list. Candidates
// are normalized once and resolutions are memoized per raw name. It is not safe for
// concurrent use.
type ClientDirectory struct {
	entries  []directoryEntry
	resolved map[string]*model.Client
}

func NewClientDirectory(clients []model.Client) *ClientDirectory {
	entries := make([]directoryEntry, len(clients))
	for i := range clients {
		entries[i] = directoryEntry{
			client:     &clients[i],
			normalized: NormalizeClientName(clients[i].CompanyName),
		}
	}
	return &ClientDirectory{entries: entries, resolved: make(map[string]*model.Client)}
}

func (d *ClientDirectory) Resolve(name string) *model.Client {
	if c, ok := d.resolved[name]; ok {
		return c
	}
	c := d.resolve(NormalizeClientName(name))
	d.resolved[name] = c
	return c
}

func (d *ClientDirectory) resolve(normalized string) *model.Client {
	for _, e := range d.entries {
		if e.normalized == normalized {
			return e.client
		}
	}

	var best *directoryEntry
	bestScore, bestDistance := 0.0, 0
	for i := range d.entries {
		e := &d.entries[i]
		score := MatchScore(normalized, e.normalized)
		if score <= minimumMatchScore {
			continue
		}
		distance := levenshtein.ComputeDistance(normalized, e.normalized)
		if best == nil || score > bestScore || (score == bestScore && distance < bestDistance) {
			best, bestScore, bestDistance = e, score, distance
		}
	}
	if best == nil {
		return nil
	}
	return best.client
}

// MinimumFor returns the minimum billable hours per shift for a free-text client name
// and whether the name resolved to a client record.
func (d *ClientDirectory) MinimumFor(name string) (float64, bool) {
	c := d.Resolve(name)
	if c == nil {
		return DefaultMinimumBillableHours, false
	}
	return float64(c.MinimumBillableHours), true
}

// Suggest returns the company name closest to name by edit distance, for diagnostics.
// It reports false when the directory is empty.
func (d *ClientDirectory) Suggest(name string) (string, bool) {
	normalized := NormalizeClientName(name)
	suggestion, bestDistance := "", -1
	for _, e := range d.entries {
		distance := levenshtein.ComputeDistance(normalized, e.normalized)
		if bestDistance < 0 || distance < bestDistance {
			suggestion, bestDistance = e.client.CompanyName, distance
		}
	}
	return suggestion, bestDistance >= 0
}
