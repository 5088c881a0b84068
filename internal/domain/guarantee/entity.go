// internal/domain/guarantee/entity.go
package guarantee

import (
	"time"
)

// Status represents the review status of a money-back claim
type Status string

const (
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusRefunded    Status = "REFUNDED"
)

var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusRefunded},
	StatusRejected:    {},
	StatusRefunded:    {},
}

// Claim is a money-back guarantee request. An order has at most one claim
// that is not REJECTED.
type Claim struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    int64     `gorm:"not null;index" json:"order_id,string"`
	OrderCode  string    `gorm:"not null;size:20" json:"order_code"`
	Status     Status    `gorm:"not null;size:20;index" json:"status"`
	Reason     string    `gorm:"type:text;not null" json:"reason"`
	Resolution string    `gorm:"type:text" json:"resolution,omitempty"`
	FiledBy    string    `gorm:"not null;size:100" json:"filed_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	History []ClaimHistory `gorm:"foreignKey:ClaimID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"history,omitempty"`
}

// ClaimHistory is an append-only record of claim status changes
type ClaimHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ClaimID    uint      `gorm:"not null;index" json:"-"`
	FromStatus Status    `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus   Status    `gorm:"not null;size:20" json:"to_status"`
	Actor      string    `gorm:"not null;size:100" json:"actor"`
	Note       string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides
func (Claim) TableName() string        { return "guarantee_claims" }
func (ClaimHistory) TableName() string { return "guarantee_claim_history" }

// Valid checks if s is a known status
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition checks the claim transition table
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
