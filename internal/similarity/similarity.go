// Package similarity scores how close two document titles are. The score
// drives duplicate detection at upload time.
package similarity

import "strings"

// minTokenLen drops filler words ("a", "of", "Q3"... keeps 3+ character
// tokens) so stopwords do not inflate similarity.
const minTokenLen = 3

// Jaccard returns the token-set similarity of a and b in [0,1]. Both strings
// are lowercased and split on whitespace; tokens shorter than three characters
// are ignored. An empty union scores 0. Symmetric: Jaccard(a,b) == Jaccard(b,a).
// Pure function, no side effects.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	union := len(setB)
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(s)) {
		if len(token) < minTokenLen {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}
