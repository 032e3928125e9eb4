package models

import (
	"time"
)

// Account is one loyalty identity: a chat user, a phone holder, or both once merged.
type Account struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" bson:"_id" json:"id"`
	ExternalID         *int64     `gorm:"uniqueIndex" bson:"externalId,omitempty" json:"externalId,omitempty"`
	Phone              *string    `gorm:"size:20;uniqueIndex" bson:"phone,omitempty" json:"phone,omitempty"`
	DisplayName        string     `gorm:"size:100" bson:"displayName,omitempty" json:"displayName,omitempty"`
	Surname            string     `gorm:"size:100" bson:"surname,omitempty" json:"surname,omitempty"`
	Handle             string     `gorm:"size:100" bson:"handle,omitempty" json:"handle,omitempty"`
	ReferralCode       string     `gorm:"size:50;uniqueIndex;not null" bson:"referralCode" json:"referralCode"`
	InvitedBy          string     `gorm:"size:50;index" bson:"invitedBy,omitempty" json:"invitedBy,omitempty"`
	PointsManual       int64      `gorm:"not null;default:0" bson:"pointsManual" json:"pointsManual"`
	PointsReferral     int64      `gorm:"not null;default:0" bson:"pointsReferral" json:"pointsReferral"`
	LastManualUpdate   *time.Time `bson:"lastManualUpdate,omitempty" json:"lastManualUpdate,omitempty"`
	LastReferralUpdate *time.Time `bson:"lastReferralUpdate,omitempty" json:"lastReferralUpdate,omitempty"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
}

// TableName pins the table name used by the sqlite store.
func (Account) TableName() string { return "accounts" }

// TotalPoints is the sum of both balance categories.
func (a *Account) TotalPoints() int64 {
	return a.PointsManual + a.PointsReferral
}

// HasPhone reports whether a phone number is attached.
func (a *Account) HasPhone() bool {
	return a.Phone != nil && *a.Phone != ""
}

// PhoneValue returns the attached phone or an empty string.
func (a *Account) PhoneValue() string {
	if a.Phone == nil {
		return ""
	}
	return *a.Phone
}

// Balance is the read view returned to the chat transport.
type Balance struct {
	AccountID int64 `json:"accountId"`
	Manual    int64 `json:"manual"`
	Referral  int64 `json:"referral"`
	Total     int64 `json:"total"`
}

// BalanceSummary combines balances with the ledger totals per category.
type BalanceSummary struct {
	Account            *Account         `json:"account"`
	ManualPoints       int64            `json:"manualPoints"`
	ReferralPoints     int64            `json:"referralPoints"`
	TotalPoints        int64            `json:"totalPoints"`
	LastManualUpdate   *time.Time       `json:"lastManualUpdate,omitempty"`
	LastReferralUpdate *time.Time       `json:"lastReferralUpdate,omitempty"`
	HistorySummary     map[string]int64 `json:"historySummary"`
}

// AccountStats is the aggregate shown on the admin dashboard.
type AccountStats struct {
	TotalAccounts     int64   `json:"totalAccounts"`
	AccountsWithPhone int64   `json:"accountsWithPhone"`
	TotalPoints       int64   `json:"totalPoints"`
	AveragePoints     float64 `json:"averagePoints"`
}
