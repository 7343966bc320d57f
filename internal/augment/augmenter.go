package augment

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/argus/argus-backend/internal/safety"
)

// CareerSource supplies the author's career documents
type CareerSource interface {
	Context() string
	IsCareerFile(path string) bool
}

var careerKeywords = []string{
	"author", "autor", "experience", "experiência", "career", "carreira",
	"background", "skills", "habilidades", "currículo", "cv", "linkedin",
}

var repoKeywords = []string{
	"repo", "repositório", "repository", "código", "codebase", "arquitetura",
	"architecture", "pasta", "folder", "estrutura", "structure", "projeto", "project",
}

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)

var presencePattern = regexp.MustCompile(`(?i)\boperations?\s+(?:in|em)\s+([A-Za-zÀ-ÿ]+)`)

const trailingPunct = `.,;:!?)"'`

// Augmenter scans a safety-checked user message for triggers and gathers
// the matching collaborator output into one injection block. Collaborators
// return text, never errors; their failure strings are injected as-is
// because a missing file or blocked page is useful context for the model.
type Augmenter struct {
	Career     CareerSource
	Repo       func() string
	AnalyzeCSV func(path string) string
	AnalyzePDF func(path string) string
	FetchURL   func(url string) string
	Calculate  func(expr string) string
	Presence   func(country string) string

	// Risk re-screens file-analyzer output before it enters the prompt.
	Risk safety.Detector

	UploadsDir    string
	MaxInputChars int
	Log           *logrus.Logger
}

const withheldNote = "Content withheld: the file's extracted text tripped the safety filter."

// TruncateInput bounds the raw message before any scanning happens. The
// cut backs up to a rune boundary so a multi-byte character is never split
// into invalid UTF-8.
func (a *Augmenter) TruncateInput(msg string) string {
	max := a.MaxInputChars
	if max <= 0 {
		max = 4000
	}
	if len(msg) <= max {
		return msg
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// Build returns the injection block for a (already truncated) message.
// Returns the empty string when nothing triggers.
func (a *Augmenter) Build(msg string) string {
	var b strings.Builder
	lower := strings.ToLower(msg)

	triggerCareer := containsAny(lower, careerKeywords)
	triggerRepo := containsAny(lower, repoKeywords)

	if triggerCareer && a.Career != nil {
		a.logTrigger("career")
		fmt.Fprintf(&b, "\n[CAREER CONTEXT]: Based on the author's professional documents: %s\n", a.Career.Context())
	}
	// Career questions also get the repository map, as proof of projects.
	if (triggerRepo || triggerCareer) && a.Repo != nil {
		a.logTrigger("repo")
		fmt.Fprintf(&b, "\n[REPO CONTEXT]: Current repository structure and readmes: %s\n", a.Repo())
	}

	a.appendURLSections(&b, msg)
	a.appendFileSections(&b, msg)
	a.appendCalcSection(&b, msg)
	a.appendPresenceSection(&b, msg)

	return b.String()
}

func (a *Augmenter) appendURLSections(b *strings.Builder, msg string) {
	if a.FetchURL == nil {
		return
	}
	for _, raw := range urlPattern.FindAllString(msg, -1) {
		url := strings.TrimRight(raw, trailingPunct)
		if url == "" {
			continue
		}
		a.logTrigger("url")
		fmt.Fprintf(b, "\n[WEB CONTENT from %s]: %s\n", url, a.FetchURL(url))
	}
}

func (a *Augmenter) appendFileSections(b *strings.Builder, msg string) {
	for _, tok := range strings.Fields(msg) {
		name := strings.TrimRight(tok, trailingPunct)
		lower := strings.ToLower(name)

		var analyze func(string) string
		switch {
		case strings.HasSuffix(lower, ".csv"):
			analyze = a.AnalyzeCSV
		case strings.HasSuffix(lower, ".pdf"):
			if a.Career != nil && a.Career.IsCareerFile(name) {
				continue // already covered by the career path
			}
			analyze = a.AnalyzePDF
		default:
			continue
		}
		if analyze == nil {
			continue
		}

		path := a.resolvePath(name)
		if path == "" {
			continue
		}

		a.logTrigger("file")
		report := analyze(path)
		if a.Risk != nil && a.Risk.Match(report) {
			if a.Log != nil {
				a.Log.WithField("path", path).Warn("file report failed the safety screen")
			}
			report = withheldNote
		}
		fmt.Fprintf(b, "\n[FILE REPORT]: %s\n", report)
	}
}

func (a *Augmenter) appendCalcSection(b *strings.Builder, msg string) {
	if a.Calculate == nil {
		return
	}
	if expr, ok := extractCalcExpr(msg); ok {
		a.logTrigger("calc")
		fmt.Fprintf(b, "\n[METRIC RESULT for %q]: %s\n", expr, a.Calculate(expr))
	}
}

func (a *Augmenter) appendPresenceSection(b *strings.Builder, msg string) {
	if a.Presence == nil {
		return
	}
	if m := presencePattern.FindStringSubmatch(msg); m != nil {
		a.logTrigger("presence")
		fmt.Fprintf(b, "\n[OPERATIONS in %s]: %s\n", m[1], a.Presence(m[1]))
	}
}

// resolvePath tries the literal path first, then the uploads directory
// joined with the base name. Returns "" when neither exists.
func (a *Augmenter) resolvePath(name string) string {
	if fileExists(name) {
		return name
	}
	if a.UploadsDir != "" {
		candidate := filepath.Join(a.UploadsDir, filepath.Base(name))
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// extractCalcExpr finds a calc(...) invocation, balancing parentheses so
// nested expressions like calc(2*(3+1)) survive.
func extractCalcExpr(msg string) (string, bool) {
	lower := strings.ToLower(msg)
	idx := strings.Index(lower, "calc(")
	if idx < 0 {
		return "", false
	}

	depth := 0
	for i := idx + 4; i < len(msg); i++ {
		switch msg[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.TrimSpace(msg[idx+5 : i]), true
			}
		}
	}
	return "", false
}

func (a *Augmenter) logTrigger(kind string) {
	if a.Log != nil {
		a.Log.WithField("trigger", kind).Debug("context trigger detected")
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
