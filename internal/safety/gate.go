package safety

import "strings"

// Detector decides whether a piece of text matches a category. The pipeline
// only depends on this predicate, so the keyword heuristics below can be
// swapped for a classifier without touching the pipeline.
type Detector interface {
	Match(text string) bool
}

// KeywordDetector matches when any of its phrases appears as a
// case-insensitive substring.
type KeywordDetector struct {
	keywords []string
}

// NewKeywordDetector creates a detector over the given phrases
func NewKeywordDetector(keywords ...string) *KeywordDetector {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &KeywordDetector{keywords: lowered}
}

// Match reports whether text contains any configured phrase
func (d *KeywordDetector) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// injectionKeywords are phrases that try to override the system instruction
var injectionKeywords = []string{
	"ignore previous instructions",
	"ignore all instructions",
	"system override",
	"new instructions",
	"forget your rules",
	"dan mode",
	"jailbreak",
	"you are now",
	"disregard",
	"ignore as instruções",
	"esqueça suas regras",
}

// riskKeywords cover injection phrasing plus malicious-intent phrasing.
// Applied to user input and to file-analyzer output, since untrusted file
// content is an injection vector equal to direct input.
var riskKeywords = append([]string{
	"how to hack",
	"write malware",
	"ransomware",
	"keylogger",
	"phishing email",
	"sql injection attack",
	"ddos attack",
	"steal credentials",
	"stolen credit card",
	"bypass authentication",
}, injectionKeywords...)

// botKeywords are scraper-style phrasings. Matching does not block; it
// triggers the tarpit delay instead.
var botKeywords = []string{
	"list all",
	"list every",
	"recursively",
	"json only",
	"exhaustively",
	"dump all",
	"in bulk",
	"every single entry",
}

// Gate bundles the three request-time predicates
type Gate struct {
	Injection Detector
	Risk      Detector
	Bot       Detector
}

// NewGate returns a gate with the stock keyword detectors
func NewGate() *Gate {
	return &Gate{
		Injection: NewKeywordDetector(injectionKeywords...),
		Risk:      NewKeywordDetector(riskKeywords...),
		Bot:       NewKeywordDetector(botKeywords...),
	}
}
