package models

import "time"

// SupportTicket is a question relayed to the staff chat.
type SupportTicket struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" bson:"_id" json:"id"`
	ExternalID     int64      `gorm:"index;not null" bson:"externalId" json:"externalId"`
	Question       string     `gorm:"type:text" bson:"question" json:"question"`
	GroupMessageID int64      `gorm:"index" bson:"groupMessageId" json:"groupMessageId"`
	IsAnswered     bool       `gorm:"not null;default:false" bson:"isAnswered" json:"isAnswered"`
	IsClosed       bool       `gorm:"not null;default:false" bson:"isClosed" json:"isClosed"`
	AnswerText     string     `gorm:"type:text" bson:"answerText,omitempty" json:"answerText,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	AnsweredAt     *time.Time `bson:"answeredAt,omitempty" json:"answeredAt,omitempty"`
}

// TableName pins the table name used by the sqlite store.
func (SupportTicket) TableName() string { return "support_tickets" }
