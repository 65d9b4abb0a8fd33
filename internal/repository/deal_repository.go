package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
)

const dealColumns = `
	id, business_profile_id, buyer_profile_id, stage, stage_entered_at,
	status, withdraw_reason, created_at, updated_at`

// dealRepository implements DealRepository
type dealRepository struct {
	db dbExecutor
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db dbExecutor) DealRepository {
	return &dealRepository{db: db}
}

func scanDeal(row interface{ Scan(...interface{}) error }) (*models.Deal, error) {
	d := &models.Deal{}
	err := row.Scan(
		&d.ID, &d.BusinessProfileID, &d.BuyerProfileID, &d.Stage,
		&d.StageEnteredAt, &d.Status, &d.WithdrawReason, &d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetByID retrieves a deal by ID
func (r *dealRepository) GetByID(id uuid.UUID) (*models.Deal, error) {
	query := `SELECT` + dealColumns + ` FROM deals WHERE id = $1`

	d, err := scanDeal(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("deal %s not found", id), nil)
		}
		return nil, errors.DatabaseError("failed to get deal", err)
	}
	return d, nil
}

// GetByPair retrieves the deal for a (business, buyer) pair
func (r *dealRepository) GetByPair(businessProfileID, buyerProfileID uuid.UUID) (*models.Deal, error) {
	query := `SELECT` + dealColumns + `
		FROM deals
		WHERE business_profile_id = $1 AND buyer_profile_id = $2`

	d, err := scanDeal(r.db.QueryRow(query, businessProfileID, buyerProfileID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("no deal for this pair", nil)
		}
		return nil, errors.DatabaseError("failed to get deal", err)
	}
	return d, nil
}

// ListByProfile retrieves every deal the profile is a party to
func (r *dealRepository) ListByProfile(profileID uuid.UUID) ([]models.Deal, error) {
	query := `SELECT` + dealColumns + `
		FROM deals
		WHERE business_profile_id = $1 OR buyer_profile_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(query, profileID)
	if err != nil {
		return nil, errors.DatabaseError("failed to query deals", err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan deal", err)
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}

// Create inserts the deal. The unique (business, buyer) constraint absorbs
// concurrent mutual-interest races; the loser sees false with a nil error.
func (r *dealRepository) Create(deal *models.Deal) (bool, error) {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	now := time.Now()
	deal.CreatedAt = now
	deal.UpdatedAt = now

	query := `
		INSERT INTO deals (
			id, business_profile_id, buyer_profile_id, stage, stage_entered_at,
			status, withdraw_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (business_profile_id, buyer_profile_id) DO NOTHING
	`

	result, err := r.db.Exec(query,
		deal.ID, deal.BusinessProfileID, deal.BuyerProfileID, deal.Stage,
		deal.StageEnteredAt, deal.Status, deal.WithdrawReason,
		deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		return false, errors.DatabaseError("failed to create deal", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("failed to get rows affected", err)
	}
	return affected > 0, nil
}

// AdvanceStage performs the compare-and-set stage transition. The update
// only matches an active deal sitting at the expected stage.
func (r *dealRepository) AdvanceStage(id uuid.UUID, from, to pipeline.Stage, enteredAt time.Time) (bool, error) {
	query := `
		UPDATE deals
		SET stage = $3, stage_entered_at = $4, updated_at = NOW()
		WHERE id = $1 AND stage = $2 AND status = 'active'
	`

	result, err := r.db.Exec(query, id, from, to, enteredAt)
	if err != nil {
		return false, errors.DatabaseError("failed to advance deal stage", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("failed to get rows affected", err)
	}
	return affected > 0, nil
}

// SetStatus performs the compare-and-set status transition
func (r *dealRepository) SetStatus(id uuid.UUID, from, to pipeline.Status, withdrawReason string) (bool, error) {
	query := `
		UPDATE deals
		SET status = $3, withdraw_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(query, id, from, to, withdrawReason)
	if err != nil {
		return false, errors.DatabaseError("failed to set deal status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("failed to get rows affected", err)
	}
	return affected > 0, nil
}

// AttachInsight appends an insight report at the next position for the deal
func (r *dealRepository) AttachInsight(insight *models.InsightReport) error {
	if insight.ID == uuid.Nil {
		insight.ID = uuid.New()
	}
	insight.CreatedAt = time.Now()

	query := `
		INSERT INTO deal_insights (
			id, deal_id, position, kind, title, summary, confidence, details,
			report_ref, created_at
		)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0), $3, $4, $5, $6, $7, $8, $9
		FROM deal_insights WHERE deal_id = $2
		RETURNING position
	`

	err := r.db.QueryRow(query,
		insight.ID, insight.DealID, insight.Kind, insight.Title,
		insight.Summary, insight.Confidence, insight.Details,
		insight.ReportRef, insight.CreatedAt,
	).Scan(&insight.Position)
	if err != nil {
		return errors.DatabaseError("failed to attach insight", err)
	}
	return nil
}

// GetInsights returns the deal's insight reports in attachment order
func (r *dealRepository) GetInsights(dealID uuid.UUID) ([]models.InsightReport, error) {
	query := `
		SELECT id, deal_id, position, kind, title, summary, confidence,
		       details, report_ref, created_at
		FROM deal_insights
		WHERE deal_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, dealID)
	if err != nil {
		return nil, errors.DatabaseError("failed to query insights", err)
	}
	defer rows.Close()

	var insights []models.InsightReport
	for rows.Next() {
		var i models.InsightReport
		err := rows.Scan(&i.ID, &i.DealID, &i.Position, &i.Kind, &i.Title,
			&i.Summary, &i.Confidence, &i.Details, &i.ReportRef, &i.CreatedAt)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan insight", err)
		}
		insights = append(insights, i)
	}
	return insights, rows.Err()
}
