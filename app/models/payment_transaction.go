package models

import "time"

// Transaction lifecycle states as reported by the checkout provider.
const (
	TransactionStatusInitiated   = "initiated"
	TransactionStatusComplete    = "complete"
	TransactionStatusExpired     = "expired"
	TransactionStatusTestSuccess = "test_success"

	PaymentStatusPending       = "pending"
	PaymentStatusPaid          = "paid"
	PaymentStatusFailed        = "failed"
	PaymentStatusCompletedTest = "completed_test"
)

// PaymentTransaction is the durable ledger entry for one hosted checkout
// session. Rows are created before the provider call returns and are never
// deleted; state changes append to the audit fields instead.
type PaymentTransaction struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SessionID     string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"session_id"`
	PackageID     string     `gorm:"type:varchar(64);not null;index" json:"package_id"`
	PizzaName     string     `gorm:"type:varchar(100);not null" json:"pizza_name"`
	Amount        int64      `gorm:"not null" json:"amount"` // cents
	Currency      string     `gorm:"type:varchar(3);not null" json:"currency"`
	Status        string     `gorm:"type:varchar(32);not null;index" json:"status"`
	PaymentStatus string     `gorm:"type:varchar(32);not null;index" json:"payment_status"`
	MetadataJSON  string     `gorm:"type:text" json:"metadata_json"`
	TestMode      bool       `gorm:"default:false" json:"test_mode"`
	EventType     string     `gorm:"type:varchar(100)" json:"event_type"`
	EventID       string     `gorm:"type:varchar(191)" json:"event_id"`
	CompletedAt   *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsPaid reports whether the session already reached its terminal paid state.
func (t *PaymentTransaction) IsPaid() bool {
	return t.PaymentStatus == PaymentStatusPaid
}
