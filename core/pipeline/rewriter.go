package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/threadrag/model"
)

// RewriteEntityLimit is the number of remembered values per category that
// are added to a rewritten query.
const RewriteEntityLimit = 3

const (
	threadPrefix   = "In thread "
	entitiesMarker = "Known entities in this thread: "
	questionMarker = "answer this question: "
)

// RewriteQuery annotates the question with the thread id and the most recent
// remembered entities, so that follow-up questions like "when was that sent?"
// still match the evidence of earlier turns.
func RewriteQuery(question string, threadID string, memory model.Entities) string {
	var known []string
	for _, category := range model.EntityCategories {
		recent := memory.Recent(category, RewriteEntityLimit)
		if len(recent) == 0 {
			continue
		}
		known = append(known, fmt.Sprintf("%s: %s", category, strings.Join(recent, ", ")))
	}

	if len(known) == 0 {
		return fmt.Sprintf("%s%s, %s%s", threadPrefix, threadID, questionMarker, question)
	}
	return fmt.Sprintf("%s%s, %s%s. %s%s", threadPrefix, threadID, entitiesMarker, strings.Join(known, "; "), questionMarker, question)
}

// LexicalQuery strips the fixed wording RewriteQuery adds and keeps the
// remembered entity values and the question. Keyword scoring then only
// matches what the user asked about. Other queries are returned unchanged.
func LexicalQuery(rewritten string) string {
	if !strings.HasPrefix(rewritten, threadPrefix) {
		return rewritten
	}
	head, question, ok := strings.Cut(rewritten, questionMarker)
	if !ok {
		return rewritten
	}

	var terms []string
	if _, known, ok := strings.Cut(head, entitiesMarker); ok {
		known = strings.TrimSuffix(known, ". ")
		for _, group := range strings.Split(known, "; ") {
			_, values, _ := strings.Cut(group, ": ")
			terms = append(terms, strings.Split(values, ", ")...)
		}
	}
	return strings.Join(append(terms, question), " ")
}
