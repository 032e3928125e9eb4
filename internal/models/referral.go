package models

import "time"

// ReferralFact is the audit row of one referral award. It is never read back
// for balance computation.
type ReferralFact struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" bson:"_id" json:"id"`
	ReferrerCode  string    `gorm:"size:50;index;not null" bson:"referrerCode" json:"referrerCode"`
	ReferredPhone string    `gorm:"size:20" bson:"referredPhone,omitempty" json:"referredPhone,omitempty"`
	PointsAwarded int64     `gorm:"not null;default:0" bson:"pointsAwarded" json:"pointsAwarded"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// TableName pins the table name used by the sqlite store.
func (ReferralFact) TableName() string { return "referrals" }

// ReferralLink is what the chat transport shows a user who wants to invite others.
type ReferralLink struct {
	AccountID    int64  `json:"accountId"`
	ReferralCode string `json:"referralCode"`
	Link         string `json:"link"`
	Invited      int64  `json:"invited"`
}
