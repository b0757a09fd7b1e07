// Package answer turns ranked chunks into a cited markdown answer.
package answer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
)

// NoEvidenceAnswer is returned when no retrieved chunk is relevant enough
const NoEvidenceAnswer = "Within this thread, I don’t see any email that clearly answers this question. " +
	"You may need to search outside this thread or check other conversations."

var whenPattern = regexp.MustCompile(`(?i)\bwhen\b`)

// HasEvidence reports whether the best combined score is strictly above minRelevance.
// Results are expected in ranked order.
func HasEvidence(results []*model.RetrievalResult, minRelevance float64) bool {
	best := -1.0
	for _, r := range results {
		if r.Combined > best {
			best = r.Combined
		}
	}
	return len(results) > 0 && best > minRelevance
}

// Build assembles the answer for question from ranked results. Every bullet
// quotes a chunk and carries its citation tag. The returned citations are in
// bullet order. Without evidence it returns NoEvidenceAnswer and no citations.
func Build(question string, results []*model.RetrievalResult, config *model.QueryConfig) (string, []model.Citation) {
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}
	if !HasEvidence(results, config.MinRelevance) {
		return NoEvidenceAnswer, []model.Citation{}
	}

	var lines []string
	if direct := directAnswer(question, results); direct != "" {
		lines = append(lines, direct, "")
	}
	lines = append(lines, fmt.Sprintf("**Question:** %s", question), "", "**Relevant information:**")

	citations := []model.Citation{}
	seen := make(map[string]bool)
	for _, r := range results {
		text := Snippet(r.Chunk.Text, config.SnippetLimit)
		key := r.Chunk.MessageID + "\x00" + text
		if seen[key] {
			continue
		}
		seen[key] = true

		citation := model.NewCitation(r.Chunk)
		lines = append(lines, fmt.Sprintf("- %s %s", text, citation.Tag()))
		citations = append(citations, citation)
	}

	return strings.Join(lines, "\n"), citations
}

// Snippet folds newlines into spaces and, with limit > 0, cuts the text to
// limit runes followed by an ellipsis.
func Snippet(text string, limit int) string {
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

// directAnswer names the latest dated email among the results for "when"
// questions
func directAnswer(question string, results []*model.RetrievalResult) string {
	if !whenPattern.MatchString(question) {
		return ""
	}

	var latest time.Time
	var latestResult *model.RetrievalResult
	for _, r := range results {
		if r.Chunk.IsAttachment() {
			continue
		}
		date, ok := helper.ParseDate(r.Chunk.Date)
		if !ok {
			continue
		}
		if latestResult == nil || date.After(latest) {
			latest = date
			latestResult = r
		}
	}
	if latestResult == nil {
		return ""
	}

	return fmt.Sprintf("**Answer:** The most relevant approval email in this thread was sent on **%s** [msg: %s].",
		latest.Format(helper.DisplayDateLayout), latestResult.Chunk.MessageID)
}
