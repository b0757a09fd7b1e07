package pipeline

import (
	"regexp"

	"github.com/siherrmann/threadrag/model"
)

// Matcher finds the values of one entity category in free text
type Matcher struct {
	Category model.EntityCategory
	Patterns []*regexp.Regexp
}

// Match returns all pattern matches in text, pattern by pattern, in order of appearance
func (m Matcher) Match(text string) []string {
	var found []string
	for _, p := range m.Patterns {
		found = append(found, p.FindAllString(text, -1)...)
	}
	return found
}

var (
	emailPattern  = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)
	filePattern   = regexp.MustCompile(`(?i)\b[\w\-.]+\.(?:pdf|docx?|xls[xm]?|pptx?|txt)\b`)
	amountPattern = regexp.MustCompile(`(?:\$|USD\s*)?\b\d{1,3}(?:,\d{3})*(?:\.\d+)?\b`)
	datePattern   = regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`)
	isoPattern    = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`)
)

// PeopleMatcher finds e-mail addresses
func PeopleMatcher() Matcher {
	return Matcher{Category: model.EntityPeople, Patterns: []*regexp.Regexp{emailPattern}}
}

// FilesMatcher finds document file names
func FilesMatcher() Matcher {
	return Matcher{Category: model.EntityFiles, Patterns: []*regexp.Regexp{filePattern}}
}

// AmountsMatcher finds plain, grouped and currency prefixed numbers
func AmountsMatcher() Matcher {
	return Matcher{Category: model.EntityAmounts, Patterns: []*regexp.Regexp{amountPattern}}
}

// DatesMatcher finds numeric day/month/year and ISO dates
func DatesMatcher() Matcher {
	return Matcher{Category: model.EntityDates, Patterns: []*regexp.Regexp{datePattern, isoPattern}}
}

// DefaultMatchers returns one matcher per entity category
func DefaultMatchers() []Matcher {
	return []Matcher{PeopleMatcher(), FilesMatcher(), AmountsMatcher(), DatesMatcher()}
}

// NewEntityExtractor composes matchers into an ExtractFunc. The user text is
// scanned first, then the sender, recipients and text of every result.
// Values are deduplicated per category in first-seen order.
func NewEntityExtractor(matchers ...Matcher) ExtractFunc {
	return func(userText string, results []*model.RetrievalResult) model.Entities {
		texts := []string{userText}
		for _, r := range results {
			if r == nil || r.Chunk == nil {
				continue
			}
			texts = append(texts, r.Chunk.From, r.Chunk.To, r.Chunk.Text)
		}

		entities := model.NewEntities()
		for _, text := range texts {
			if text == "" {
				continue
			}
			for _, m := range matchers {
				for _, value := range m.Match(text) {
					entities.Add(m.Category, value)
				}
			}
		}
		return entities
	}
}

// DefaultEntityExtractor extracts people, files, amounts and dates
func DefaultEntityExtractor() ExtractFunc {
	return NewEntityExtractor(DefaultMatchers()...)
}

// ExtractEntities runs the default extractor
func ExtractEntities(userText string, results []*model.RetrievalResult) model.Entities {
	return DefaultEntityExtractor()(userText, results)
}
