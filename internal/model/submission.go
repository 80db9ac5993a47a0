package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionFailed    SubmissionStatus = "failed"
)

// SubmissionRecord is the terminal's journal entry for one pay attempt.
type SubmissionRecord struct {
	BaseModel
	IdempotencyKey uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"idempotency_key"`
	Cashier        string           `gorm:"type:varchar(80);index" json:"cashier"`
	Session        string           `gorm:"type:varchar(64);index" json:"session"`
	SaleID         string           `gorm:"type:varchar(64)" json:"sale_id,omitempty"`
	Status         SubmissionStatus `gorm:"type:varchar(16);not null" json:"status"`
	ItemCount      int              `gorm:"not null" json:"item_count"`
	Subtotal       decimal.Decimal  `gorm:"type:numeric(14,2)" json:"subtotal"`
	Discount       decimal.Decimal  `gorm:"type:numeric(14,2)" json:"discount"`
	Tax            decimal.Decimal  `gorm:"type:numeric(14,2)" json:"tax"`
	Total          decimal.Decimal  `gorm:"type:numeric(14,2)" json:"total"`
	Error          string           `gorm:"type:text" json:"error,omitempty"`
}

func (SubmissionRecord) TableName() string {
	return "terminal_submissions"
}
