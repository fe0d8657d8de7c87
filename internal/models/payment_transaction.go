package models

import "github.com/google/uuid"

// Reconciliation outcomes recorded per callback attempt.
const (
	CallbackOutcomeApplied   = "applied"
	CallbackOutcomeDuplicate = "duplicate"
	CallbackOutcomeConflict  = "conflict"
	CallbackOutcomeRejected  = "rejected"
	CallbackOutcomeOrphan    = "orphan"
)

// PaymentTransaction logs every payment-gateway callback received, including
// the ones that were rejected or conflicted, so reconciliation disputes can be
// reviewed manually.
type PaymentTransaction struct {
	BaseModel
	Provider       string     `gorm:"index" json:"provider"`
	ProviderTxnRef string     `gorm:"index" json:"provider_txn_ref"`
	OrderRef       string     `gorm:"index" json:"order_ref"`
	OrderID        *uuid.UUID `gorm:"type:uuid" json:"order_id"`
	Amount         int64      `json:"amount"`
	Success        bool       `json:"success"`
	Outcome        string     `json:"outcome"`
	Detail         string     `json:"detail"`
	RawPayload     []byte     `gorm:"type:jsonb" json:"raw_payload"`
}
