// Package match scores provider search results against a catalogue title.
package match

import (
	"strings"

	"github.com/AlexMakesC0de/anime-watch/key"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/AlexMakesC0de/anime-watch/provider"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// Audio is the audio track of a provider entry.
type Audio string

const (
	Sub Audio = "sub"
	Dub Audio = "dub"
)

// ParseAudio maps user input to an Audio, defaulting to Sub.
func ParseAudio(s string) Audio {
	if strings.EqualFold(strings.TrimSpace(s), string(Dub)) {
		return Dub
	}
	return Sub
}

// Candidate is a scored search result.
type Candidate struct {
	provider.SearchResult
	Score float64 `json:"score"`
}

// Weights are the scoring constants of the matcher.
type Weights struct {
	Exact       float64
	Contains    float64
	AltContains float64
	Overlap     float64
	PenaltyCap  float64
	Accept      float64
}

// DefaultWeights are tuned against the gogoanime search page.
var DefaultWeights = Weights{
	Exact:       100,
	Contains:    80,
	AltContains: 75,
	Overlap:     60,
	PenaltyCap:  20,
	Accept:      30,
}

// WeightsFromConfig returns DefaultWeights with the configured threshold and penalty cap applied.
func WeightsFromConfig() Weights {
	w := DefaultWeights
	if viper.IsSet(key.MatchAcceptThreshold) {
		w.Accept = viper.GetFloat64(key.MatchAcceptThreshold)
	}
	if viper.IsSet(key.MatchLengthPenaltyCap) {
		w.PenaltyCap = viper.GetFloat64(key.MatchLengthPenaltyCap)
	}
	return w
}

// IsDub reports whether the provider marks r as a dubbed entry.
func IsDub(r provider.SearchResult) bool {
	return strings.Contains(strings.ToLower(r.Title), "(dub)") || strings.HasSuffix(strings.ToLower(r.Slug), "-dub")
}

// FilterAudio keeps results of the requested audio track.
// If none match, the unfiltered results are returned.
func FilterAudio(results []provider.SearchResult, audio Audio) []provider.SearchResult {
	filtered := lo.Filter(results, func(r provider.SearchResult, _ int) bool {
		return IsDub(r) == (audio == Dub)
	})

	if len(filtered) == 0 {
		return results
	}
	return filtered
}

// Score rates candidateTitle against the query title and its alternative.
func (w Weights) Score(candidateTitle, title, altTitle string) float64 {
	c := Normalize(candidateTitle)
	t := Normalize(title)
	a := Normalize(altTitle)

	if c == "" {
		return 0
	}

	var score float64
	switch {
	case c == t || (a != "" && c == a):
		return w.Exact
	case t != "" && (strings.Contains(c, t) || strings.Contains(t, c)):
		score = w.Contains
	case a != "" && (strings.Contains(c, a) || strings.Contains(a, c)):
		score = w.AltContains
	default:
		score = max(overlap(c, t), overlap(c, a)) * w.Overlap
	}

	shortest := len(t)
	if a != "" && (t == "" || len(a) < shortest) {
		shortest = len(a)
	}

	if excess := len(c) - shortest; excess > 0 {
		score -= min(float64(2*excess), w.PenaltyCap)
	}

	return max(score, 0)
}

// Rank scores and orders results, best first. Ties go to the shorter title, then
// to the smaller edit distance from the query.
func (w Weights) Rank(results []provider.SearchResult, title, altTitle string) []Candidate {
	query := Normalize(title)
	candidates := lo.Map(results, func(r provider.SearchResult, _ int) Candidate {
		return Candidate{SearchResult: r, Score: w.Score(r.Title, title, altTitle)}
	})

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}

		na, nb := Normalize(a.Title), Normalize(b.Title)
		if len(na) != len(nb) {
			return len(na) - len(nb)
		}

		return levenshtein.Distance(query, na) - levenshtein.Distance(query, nb)
	})

	return candidates
}

// FindBestMatch returns the best result for the requested audio track, if its score clears the threshold.
func (w Weights) FindBestMatch(results []provider.SearchResult, title, altTitle string, audio Audio) mo.Option[Candidate] {
	ranked := w.Rank(FilterAudio(results, audio), title, altTitle)
	if len(ranked) == 0 {
		return mo.None[Candidate]()
	}

	best := ranked[0]
	if best.Score <= w.Accept {
		log.Infof("best match for %q is %q at %.1f, below threshold %.1f", title, best.Title, best.Score, w.Accept)
		return mo.None[Candidate]()
	}

	log.Infof("matched %q to %s (%.1f)", title, best.Slug, best.Score)
	return mo.Some(best)
}

// FindBestMatch uses DefaultWeights.
func FindBestMatch(results []provider.SearchResult, title, altTitle string, audio Audio) mo.Option[Candidate] {
	return DefaultWeights.FindBestMatch(results, title, altTitle, audio)
}

// overlap is the share of query words present in candidate.
func overlap(candidate, query string) float64 {
	queryWords := words(query)
	if len(queryWords) == 0 {
		return 0
	}

	have := lo.Associate(words(candidate), func(w string) (string, struct{}) { return w, struct{}{} })
	shared := lo.CountBy(queryWords, func(w string) bool {
		_, ok := have[w]
		return ok
	})

	return float64(shared) / float64(len(queryWords))
}
