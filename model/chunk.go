package model

import "fmt"

// Source tells where the text of a chunk came from.
type Source string

const (
	SourceEmail      Source = "email"
	SourceAttachment Source = "attachment"
)

// Chunk is one retrievable unit: an email body or one attachment page.
// Chunks are read-only after the corpus is loaded.
type Chunk struct {
	ChunkID   string `json:"chunk_id"`
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
	Source    Source `json:"source"`
	Text      string `json:"text"`
	PageNo    *int   `json:"page_no,omitempty"`
	Filename  string `json:"filename,omitempty"`
	// Email header fields, empty for attachments
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Date string `json:"date,omitempty"`
}

// IsAttachment reports whether the chunk is an attachment page.
func (c *Chunk) IsAttachment() bool {
	return c.Source == SourceAttachment
}

// Validate checks the identity fields every chunk must carry.
func (c *Chunk) Validate() error {
	if c.ChunkID == "" {
		return fmt.Errorf("chunk without chunk_id")
	}
	if c.ThreadID == "" || c.MessageID == "" {
		return fmt.Errorf("chunk %s without thread_id or message_id", c.ChunkID)
	}
	switch c.Source {
	case SourceEmail, SourceAttachment:
	case "":
		c.Source = SourceEmail
	default:
		return fmt.Errorf("chunk %s has unknown source %q", c.ChunkID, c.Source)
	}
	if c.Source == SourceAttachment && c.PageNo == nil {
		page := 1
		c.PageNo = &page
	}
	return nil
}

// Citation points from an answer bullet back to its chunk.
type Citation struct {
	MessageID string `json:"message_id" yaml:"message_id"`
	PageNo    *int   `json:"page_no" yaml:"page_no"`
	ChunkID   string `json:"chunk_id" yaml:"chunk_id"`
}

// NewCitation creates the citation for a chunk.
func NewCitation(c *Chunk) Citation {
	citation := Citation{
		MessageID: c.MessageID,
		ChunkID:   c.ChunkID,
	}
	if c.IsAttachment() && c.PageNo != nil {
		page := *c.PageNo
		citation.PageNo = &page
	}
	return citation
}

// Tag renders the inline citation tag used in answers.
func (c Citation) Tag() string {
	if c.PageNo != nil {
		return fmt.Sprintf("[msg: %s, page: %d]", c.MessageID, *c.PageNo)
	}
	return fmt.Sprintf("[msg: %s]", c.MessageID)
}
