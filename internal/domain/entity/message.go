package entity

import "time"

type MessageType string

const (
	MessageTypeApproval MessageType = "approval"
	MessageTypeDecline  MessageType = "decline"
	MessageTypeGeneral  MessageType = "general"
)

// MessageTTL is how long a moderation notice stays visible.
const MessageTTL = 2 * time.Hour

// Message is a time-boxed notice to a user about one of their reports. ReportID is
// best-effort: the report may no longer exist.
type Message struct {
	ID        string      `json:"id" firestore:"id"`
	UserID    string      `json:"user_id" firestore:"userId"`
	Title     string      `json:"title" firestore:"title"`
	Body      string      `json:"body" firestore:"message"`
	Type      MessageType `json:"type" firestore:"type"`
	ReportID  string      `json:"report_id" firestore:"reportId"`
	Read      bool        `json:"read" firestore:"read"`
	CreatedAt time.Time   `json:"created_at" firestore:"createdAt"`
	ExpiresAt time.Time   `json:"expires_at" firestore:"expiresAt"`
}

func (m *Message) Expired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}
