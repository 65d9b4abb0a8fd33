package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
)

const profileColumns = `
	id, user_id, role, display_name, location_city, location_region,
	location_country, size_band, timeline_band, geo_preference, industries,
	description, answers, completed_onboarding, created_at, updated_at`

// profileRepository implements ProfileRepository
type profileRepository struct {
	db dbExecutor
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db dbExecutor) ProfileRepository {
	return &profileRepository{db: db}
}

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.Profile, error) {
	p := &models.Profile{}
	var answers []byte
	err := row.Scan(
		&p.ID, &p.UserID, &p.Role, &p.DisplayName, &p.LocationCity,
		&p.LocationRegion, &p.LocationCountry, &p.SizeBand, &p.TimelineBand,
		&p.GeoPreference, &p.Industries, &p.Description, &answers,
		&p.CompletedOnboarding, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Answers = answers
	return p, nil
}

// GetByID retrieves a profile by ID
func (r *profileRepository) GetByID(id uuid.UUID) (*models.Profile, error) {
	query := `SELECT` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("profile %s not found", id), nil)
		}
		return nil, errors.DatabaseError("failed to get profile", err)
	}
	return p, nil
}

// GetByUserID retrieves the profile owned by a user
func (r *profileRepository) GetByUserID(userID uuid.UUID) (*models.Profile, error) {
	query := `SELECT` + profileColumns + ` FROM profiles WHERE user_id = $1`

	p, err := scanProfile(r.db.QueryRow(query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("no profile for user %s", userID), nil)
		}
		return nil, errors.DatabaseError("failed to get profile", err)
	}
	return p, nil
}

// GetActiveByRole retrieves finalized profiles for a role
func (r *profileRepository) GetActiveByRole(role string) ([]models.Profile, error) {
	query := `SELECT` + profileColumns + `
		FROM profiles
		WHERE role = $1 AND completed_onboarding
		ORDER BY id`

	rows, err := r.db.Query(query, role)
	if err != nil {
		return nil, errors.DatabaseError("failed to query profiles", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan profile", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Create creates a new profile
func (r *profileRepository) Create(profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	answers := profile.Answers
	if len(answers) == 0 {
		answers = []byte("{}")
	}

	query := `
		INSERT INTO profiles (
			id, user_id, role, display_name, location_city, location_region,
			location_country, size_band, timeline_band, geo_preference,
			industries, description, answers, completed_onboarding,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`

	_, err := r.db.Exec(query,
		profile.ID, profile.UserID, profile.Role, profile.DisplayName,
		profile.LocationCity, profile.LocationRegion, profile.LocationCountry,
		profile.SizeBand, profile.TimelineBand, profile.GeoPreference,
		profile.Industries, profile.Description, []byte(answers),
		profile.CompletedOnboarding, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to create profile", err)
	}
	return nil
}

// Update updates a profile's mutable fields
func (r *profileRepository) Update(profile *models.Profile) error {
	profile.UpdatedAt = time.Now()

	answers := profile.Answers
	if len(answers) == 0 {
		answers = []byte("{}")
	}

	query := `
		UPDATE profiles SET
			display_name = $2, location_city = $3, location_region = $4,
			location_country = $5, size_band = $6, timeline_band = $7,
			geo_preference = $8, industries = $9, description = $10,
			answers = $11, completed_onboarding = $12, updated_at = $13
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		profile.ID, profile.DisplayName, profile.LocationCity,
		profile.LocationRegion, profile.LocationCountry, profile.SizeBand,
		profile.TimelineBand, profile.GeoPreference, profile.Industries,
		profile.Description, []byte(answers), profile.CompletedOnboarding,
		profile.UpdatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to update profile", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to get rows affected", err)
	}
	if affected == 0 {
		return errors.NotFound(fmt.Sprintf("profile %s not found", profile.ID), nil)
	}
	return nil
}

// Delete removes a profile; queue entries and deals cascade at the schema
// level
func (r *profileRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return errors.DatabaseError("failed to delete profile", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to get rows affected", err)
	}
	if affected == 0 {
		return errors.NotFound(fmt.Sprintf("profile %s not found", id), nil)
	}
	return nil
}
