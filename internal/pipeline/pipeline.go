// Package pipeline defines the nine-stage acquisition deal state machine:
// the ordered stage list, deal statuses, and the transition guards enforced
// before any mutation.
package pipeline

import (
	"fmt"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
)

// Stage is one of the nine ordered phases of a deal
type Stage string

const (
	StageInitialContact   Stage = "initial_contact"
	StageNdaAndBasicInfo  Stage = "nda_and_basic_info"
	StageBusinessOverview Stage = "business_overview"
	StageFinancialReview  Stage = "financial_review"
	StageDueDiligence     Stage = "due_diligence"
	StageValuation        Stage = "valuation"
	StageNegotiation      Stage = "negotiation"
	StageLegalReview      Stage = "legal_review"
	StageClosing          Stage = "closing"
)

// Stages lists all stages in pipeline order. Strictly sequential: no
// skipping, no reordering.
var Stages = []Stage{
	StageInitialContact,
	StageNdaAndBasicInfo,
	StageBusinessOverview,
	StageFinancialReview,
	StageDueDiligence,
	StageValuation,
	StageNegotiation,
	StageLegalReview,
	StageClosing,
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(Stages))
	for i, s := range Stages {
		m[s] = i
	}
	return m
}()

var stageNames = map[Stage]string{
	StageInitialContact:   "Initial Contact",
	StageNdaAndBasicInfo:  "NDA & Basic Info",
	StageBusinessOverview: "Business Overview",
	StageFinancialReview:  "Financial Review",
	StageDueDiligence:     "Due Diligence",
	StageValuation:        "Valuation",
	StageNegotiation:      "Negotiation",
	StageLegalReview:      "Legal Review",
	StageClosing:          "Closing",
}

var stageDescriptions = map[Stage]string{
	StageInitialContact:   "First communication established",
	StageNdaAndBasicInfo:  "Confidentiality agreements signed",
	StageBusinessOverview: "High-level business review completed",
	StageFinancialReview:  "AI analysis of financial documents in progress",
	StageDueDiligence:     "Comprehensive business evaluation",
	StageValuation:        "Business valuation and offer preparation",
	StageNegotiation:      "Terms negotiation and agreement",
	StageLegalReview:      "Legal documentation and compliance",
	StageClosing:          "Final transaction completion",
}

// Valid reports whether s is a known stage
func (s Stage) Valid() bool {
	_, ok := stageIndex[s]
	return ok
}

// Index returns the ordinal position of the stage, or -1 if unknown
func (s Stage) Index() int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// Name returns the display name of the stage
func (s Stage) Name() string {
	return stageNames[s]
}

// Description returns the display description of the stage
func (s Stage) Description() string {
	return stageDescriptions[s]
}

// Next returns the following stage; ok is false at the terminal stage
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i >= len(Stages)-1 {
		return "", false
	}
	return Stages[i+1], true
}

// Status is the deal-level status
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusClosed    Status = "closed"
	StatusWithdrawn Status = "withdrawn"
)

// Valid reports whether st is a known status
func (st Status) Valid() bool {
	switch st {
	case StatusActive, StatusPending, StatusClosed, StatusWithdrawn:
		return true
	}
	return false
}

// CanAdvance validates an advance attempt. A deal must be active and not
// already at the terminal stage.
func CanAdvance(stage Stage, status Status) error {
	if status != StatusActive {
		return errors.DealNotActive(fmt.Sprintf("deal is %s; only active deals advance", status))
	}
	if stage == StageClosing {
		return errors.TerminalStage("deal is already at closing")
	}
	if !stage.Valid() {
		return errors.InvalidInput(fmt.Sprintf("unknown stage %q", stage), nil)
	}
	return nil
}

// CanWithdraw validates a withdraw attempt. Withdrawn is terminal and a
// closed deal can no longer be abandoned.
func CanWithdraw(status Status) error {
	switch status {
	case StatusActive, StatusPending:
		return nil
	default:
		return errors.DealNotActive(fmt.Sprintf("cannot withdraw a %s deal", status))
	}
}

// CanMarkPending validates freezing an active deal
func CanMarkPending(status Status) error {
	if status != StatusActive {
		return errors.DealNotActive(fmt.Sprintf("cannot mark a %s deal pending", status))
	}
	return nil
}

// CanReactivate validates unfreezing a pending deal. Withdrawn deals stay
// withdrawn.
func CanReactivate(status Status) error {
	if status != StatusPending {
		return errors.DealNotActive(fmt.Sprintf("cannot reactivate a %s deal", status))
	}
	return nil
}

// StepStatus is the per-stage substatus relative to a deal's current stage
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepActive    StepStatus = "active"
	StepPending   StepStatus = "pending"
)

// Step describes one pipeline stage for display
type Step struct {
	Stage       Stage      `json:"stage"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// StepsFor derives the full step list relative to the current stage:
// earlier stages completed, the current stage active, later stages pending.
func StepsFor(current Stage) []Step {
	ci := current.Index()
	steps := make([]Step, len(Stages))
	for i, s := range Stages {
		st := StepPending
		switch {
		case i < ci:
			st = StepCompleted
		case i == ci:
			st = StepActive
		}
		steps[i] = Step{
			Stage:       s,
			Name:        s.Name(),
			Description: s.Description(),
			Status:      st,
		}
	}
	return steps
}

// Progress returns percent complete through the pipeline, for progress bars
func Progress(current Stage) int {
	i := current.Index()
	if i < 0 {
		return 0
	}
	return (i * 100) / (len(Stages) - 1)
}
