package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
)

// Deal tracks a single acquisition between a business listing and a buyer.
// Mutated only through pipeline transition operations, never by direct
// field writes.
type Deal struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	BusinessProfileID uuid.UUID       `json:"business_profile_id" db:"business_profile_id"`
	BuyerProfileID    uuid.UUID       `json:"buyer_profile_id" db:"buyer_profile_id"`
	Stage             pipeline.Stage  `json:"stage" db:"stage"`
	StageEnteredAt    time.Time       `json:"stage_entered_at" db:"stage_entered_at"`
	Status            pipeline.Status `json:"status" db:"status"`
	WithdrawReason    string          `json:"withdraw_reason,omitempty" db:"withdraw_reason"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Involves reports whether the given profile is a party to the deal
func (d *Deal) Involves(profileID uuid.UUID) bool {
	return d.BusinessProfileID == profileID || d.BuyerProfileID == profileID
}

// InsightKind classifies externally produced analysis reports
type InsightKind string

const (
	InsightFinancial InsightKind = "financial"
	InsightRisk      InsightKind = "risk"
	InsightValuation InsightKind = "valuation"
)

// Valid reports whether k is a known insight kind
func (k InsightKind) Valid() bool {
	switch k {
	case InsightFinancial, InsightRisk, InsightValuation:
		return true
	}
	return false
}

// InsightReport references an analysis report produced by the upstream
// document/AI service. The core stores and orders references; it never
// computes insight content.
type InsightReport struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	DealID     uuid.UUID      `json:"deal_id" db:"deal_id"`
	Position   int            `json:"position" db:"position"`
	Kind       InsightKind    `json:"kind" db:"kind"`
	Title      string         `json:"title" db:"title"`
	Summary    string         `json:"summary" db:"summary"`
	Confidence int            `json:"confidence" db:"confidence"`
	Details    pq.StringArray `json:"details" db:"details"`
	ReportRef  string         `json:"report_ref" db:"report_ref"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}
