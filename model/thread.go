package model

// Thread is the message metadata of one email conversation.
type Thread struct {
	ThreadID     string   `json:"thread_id"`
	MessageIDs   []string `json:"message_ids"`
	Participants []string `json:"participants,omitempty"`
}

// Message is the header metadata of one email.
type Message struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id,omitempty"`
	Date      string `json:"date,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Subject   string `json:"subject,omitempty"`
}
