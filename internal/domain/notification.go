package domain

import "time"

type Notification struct {
	ID         int64             `json:"id"`
	AccountID  string            `json:"account_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}
