package domain

import "time"

// Message is a single chat message as it travels through the broker. It is
// ephemeral; delivery and retention are the broker's concern, not ours.
type Message struct {
	ID         string    `json:"id"`
	Room       string    `json:"room"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}
