package models

// Conversation is a titled thread of messages between the user and the bot.
// Timestamps are Unix milliseconds.
type Conversation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CreatedAt   int64  `json:"createdAt"`
	LastUpdated int64  `json:"lastUpdated"`
	Archived    bool   `json:"archived,omitempty"`
}

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is a single entry of a conversation transcript.
type Message struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}
