package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Profile is the matchable entity for both roles: a business listing when
// owned by a seller, an investor profile when owned by a buyer. Identity is
// immutable; every other field is mutable by the owning user only.
type Profile struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Role            string    `json:"role" db:"role"`
	DisplayName     string    `json:"display_name" db:"display_name"`
	LocationCity    string    `json:"location_city" db:"location_city"`
	LocationRegion  string    `json:"location_region" db:"location_region"`
	LocationCountry string    `json:"location_country" db:"location_country"`
	// SizeBand is the seller's revenue band or the buyer's capital band
	SizeBand     string `json:"size_band" db:"size_band"`
	TimelineBand string `json:"timeline_band" db:"timeline_band"`
	// GeoPreference is buyer-only (Local only / Regional / National /
	// International / No preference)
	GeoPreference string `json:"geo_preference,omitempty" db:"geo_preference"`
	// Industries holds the seller's industries or the buyer's target
	// industries
	Industries  pq.StringArray `json:"industries" db:"industries"`
	Description string         `json:"description" db:"description"`
	// Answers preserves the raw onboarding answer set
	Answers             json.RawMessage `json:"answers,omitempty" db:"answers"`
	CompletedOnboarding bool            `json:"completed_onboarding" db:"completed_onboarding"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the profile is eligible for matching. Only
// finalized profiles enter discovery queues.
func (p *Profile) IsActive() bool {
	return p.CompletedOnboarding
}

// HasIndustry reports whether the profile lists the given industry tag
func (p *Profile) HasIndustry(tag string) bool {
	for _, t := range p.Industries {
		if t == tag {
			return true
		}
	}
	return false
}

// ProfilePatch carries the owner-mutable fields for an update. Nil fields
// are left unchanged.
type ProfilePatch struct {
	DisplayName     *string   `json:"display_name"`
	LocationCity    *string   `json:"location_city"`
	LocationRegion  *string   `json:"location_region"`
	LocationCountry *string   `json:"location_country"`
	SizeBand        *string   `json:"size_band"`
	TimelineBand    *string   `json:"timeline_band"`
	GeoPreference   *string   `json:"geo_preference"`
	Industries      *[]string `json:"industries"`
	Description     *string   `json:"description"`
}
