package compress

import "strings"

// qualifierWords are filler proficiency markers stripped from skill terms.
var qualifierWords = map[string]bool{
	"basic":    true,
	"advanced": true,
}

// NormalizeSkills turns a free-text skill list into a deduplicated variant
// set: lowercase, punctuation stripped, multi-word terms kept as the full
// phrase plus each sub-token plus a joined no-space form.
func NormalizeSkills(raw string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	for _, term := range splitTerms(raw) {
		words := termWords(term)
		if len(words) == 0 {
			continue
		}

		add(strings.Join(words, " "))
		if len(words) > 1 {
			for _, w := range words {
				add(w)
			}
			add(strings.Join(words, ""))
		}
	}
	return out
}

// splitTerms breaks the raw list on common separators.
func splitTerms(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', '/', '|', '\n':
			return true
		}
		return false
	})
}

// termWords lowercases one term, removes punctuation and qualifier words,
// and splits it into sub-tokens.
func termWords(term string) []string {
	term = strings.ToLower(term)
	term = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"'()[]{}&#+*", r) {
			return -1
		}
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, term)

	var words []string
	for _, w := range strings.Fields(term) {
		if qualifierWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}
