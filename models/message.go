package models

// Message is a contact-form submission.
type Message struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Contact   string `db:"contact" json:"contact"`
	Body      string `db:"body" json:"body"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
