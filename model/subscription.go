package model

import "time"

// Subscription rows are written by the out-of-scope IAP flows, plus the admin
// support override; this service otherwise only reads them to gate
// subscriber features.
type Subscription struct {
	ID                         string    `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID                     string    `json:"user_id" gorm:"not null;uniqueIndex"`
	Tier                       string    `json:"tier" gorm:"not null;size:16"`
	Status                     string    `json:"status" gorm:"not null;size:16;index"`
	PeriodStart                time.Time `json:"period_start"`
	PeriodEnd                  time.Time `json:"period_end"`
	CancelAtPeriodEnd          bool      `json:"cancel_at_period_end" gorm:"default:false;not null"`
	AppleOriginalTransactionID string    `json:"apple_original_transaction_id,omitempty" gorm:"index"`
	CreatedAt                  time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt                  time.Time `json:"updated_at" gorm:"not null"`
}

func (s *Subscription) Active(now time.Time) bool {
	return s.Status == "active" && now.Before(s.PeriodEnd)
}
