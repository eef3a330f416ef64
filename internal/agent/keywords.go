package agent

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCancellationKeywords are the terms that mark a client message as a
// cancellation or dissatisfaction signal.
var DefaultCancellationKeywords = []string{
	"cancelar",
	"cancelamento",
	"rescindir",
	"rescisão",
	"encerrar o contrato",
	"não quero mais",
	"não vou renovar",
	"insatisfeito",
	"insatisfeita",
	"insatisfação",
	"decepcionado",
	"decepcionada",
	"péssimo",
	"horrível",
	"outra agência",
	"procon",
	"reembolso",
	"cancel",
	"refund",
}

// Fold lowercases s and strips diacritics so "Rescisão" matches "rescisao".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// KeywordMatcher finds cancellation terms in free text.
type KeywordMatcher struct {
	terms []string
	raw   []string
}

// NewKeywordMatcher folds terms once up front. Blank terms are ignored.
func NewKeywordMatcher(terms []string) *KeywordMatcher {
	m := &KeywordMatcher{}
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		f := strings.TrimSpace(Fold(t))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		m.terms = append(m.terms, f)
		m.raw = append(m.raw, t)
	}
	return m
}

// Find returns the distinct terms present in any of texts, in catalog order.
func (m *KeywordMatcher) Find(texts ...string) []string {
	if m == nil || len(m.terms) == 0 {
		return nil
	}
	folded := make([]string, len(texts))
	for i, t := range texts {
		folded[i] = Fold(t)
	}

	var found []string
	for i, term := range m.terms {
		for _, f := range folded {
			if strings.Contains(f, term) {
				found = append(found, m.raw[i])
				break
			}
		}
	}
	return found
}
