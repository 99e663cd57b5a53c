package enrich

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

var (
	// leadingNumber matches list markers such as "1.", "2)" or "3 -".
	leadingNumber = regexp.MustCompile(`^\d+\s*[.)\-:]?\s*`)

	// clarityPair matches a yes/no line followed by the suggestion line. Either
	// line may wrap its value in brackets: "1. [si]" / "2. [texto]".
	clarityPair = regexp.MustCompile(`(?im)(?:\d+\.\s*\[([^\]]+)\]|\d+\.\s*(s[ií]|no))[^\n]*\n(?:\d+\.\s*\[([^\]]+)\]|\d+\.\s*([^\n]*))`)
)

// fold lowercases s and strips diacritics, so "Sí" becomes "si".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// normalizeAnswer reduces a model answer line to its bare token.
func normalizeAnswer(line string) string {
	s := strings.TrimSpace(line)
	s = leadingNumber.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t\"'.,;:!*[]()")
	return fold(s)
}

// ParseRelation maps the relation answer to one value per row.
// "si" is true, "no" is false, anything else is nil. Blank lines are ignored.
// The result always has exactly n entries.
func ParseRelation(text string, n int, logger *slog.Logger) []*bool {
	results := make([]*bool, 0, n)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch normalizeAnswer(line) {
		case "si":
			results = append(results, types.BoolPtr(true))
		case "no":
			results = append(results, types.BoolPtr(false))
		default:
			logger.Warn("unexpected relation answer", "answer", strings.TrimSpace(line))
			results = append(results, nil)
		}
	}

	if len(results) != n {
		logger.Warn("relation answer count mismatch", "expected", n, "got", len(results))
	}
	for len(results) < n {
		results = append(results, nil)
	}
	return results[:n]
}

// ClarityResult is one parsed clarity answer.
type ClarityResult struct {
	Flag       string
	Suggestion string
}

// ParseClarity pairs each yes/no answer with the suggestion line after it.
// Missing pairs are padded with ("no", DefaultSuggestion); extra pairs are
// dropped. The result always has exactly n entries.
func ParseClarity(text string, n int, logger *slog.Logger) []ClarityResult {
	results := make([]ClarityResult, 0, n)
	for _, m := range clarityPair.FindAllStringSubmatch(text, -1) {
		var answer, suggestion string
		for _, g := range m[1:] {
			if g = strings.TrimSpace(g); g != "" && isYesNo(g) {
				answer = fold(g)
				break
			}
		}
		for _, g := range m[1:] {
			if g = strings.TrimSpace(g); g != "" && !isYesNo(g) {
				suggestion = g
				break
			}
		}
		if answer == "" || suggestion == "" {
			continue
		}

		flag := "no"
		if strings.Contains(answer, "si") {
			flag = "si"
		}
		results = append(results, ClarityResult{Flag: flag, Suggestion: suggestion})
	}

	for i := len(results); i < n; i++ {
		logger.Warn("adding default clarity answer", "product", i+1)
		results = append(results, ClarityResult{Flag: "no", Suggestion: DefaultSuggestion})
	}
	return results[:n]
}

func isYesNo(s string) bool {
	f := fold(s)
	return f == "si" || f == "no"
}
