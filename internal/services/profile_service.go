package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/onboarding"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
	"github.com/dealflow-hq/dealflow-api/internal/scoring"
)

// profileService implements ProfileService
type profileService struct {
	repos *repository.Repositories
}

func newProfileService(repos *repository.Repositories) *profileService {
	return &profileService{repos: repos}
}

// GetByID retrieves any profile by ID
func (s *profileService) GetByID(id uuid.UUID) (*models.Profile, error) {
	return s.repos.Profile.GetByID(id)
}

// GetOwn retrieves the caller's profile
func (s *profileService) GetOwn(userID uuid.UUID) (*models.Profile, error) {
	return s.repos.Profile.GetByUserID(userID)
}

// Update applies an owner's patch. Enumerated fields are validated against
// the role's option lists; stale queue scores self-heal on the next refresh.
func (s *profileService) Update(userID, profileID uuid.UUID, patch *models.ProfilePatch) (*models.Profile, error) {
	profile, err := s.repos.Profile.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, errors.Forbidden("only the owner may edit this profile", nil)
	}

	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, errors.InvalidInput("display name cannot be empty", nil)
		}
		profile.DisplayName = name
	}
	if patch.LocationCity != nil {
		profile.LocationCity = strings.TrimSpace(*patch.LocationCity)
	}
	if patch.LocationRegion != nil {
		profile.LocationRegion = strings.TrimSpace(*patch.LocationRegion)
	}
	if patch.LocationCountry != nil {
		profile.LocationCountry = strings.TrimSpace(*patch.LocationCountry)
	}
	if patch.SizeBand != nil {
		bands := scoring.RevenueBands
		if profile.Role == string(models.RoleBuyer) {
			bands = scoring.CapitalBands
		}
		if !containsOption(bands, *patch.SizeBand) {
			return nil, errors.InvalidOption(fmt.Sprintf("%q is not a valid size band", *patch.SizeBand))
		}
		profile.SizeBand = *patch.SizeBand
	}
	if patch.TimelineBand != nil {
		timelines := scoring.SellerTimelines
		if profile.Role == string(models.RoleBuyer) {
			timelines = scoring.BuyerTimelines
		}
		if !containsOption(timelines, *patch.TimelineBand) {
			return nil, errors.InvalidOption(fmt.Sprintf("%q is not a valid timeline", *patch.TimelineBand))
		}
		profile.TimelineBand = *patch.TimelineBand
	}
	if patch.GeoPreference != nil {
		if profile.Role != string(models.RoleBuyer) {
			return nil, errors.InvalidInput("geographic preference is a buyer field", nil)
		}
		if !containsOption(scoring.GeoPreferences, *patch.GeoPreference) {
			return nil, errors.InvalidOption(fmt.Sprintf("%q is not a valid geographic preference", *patch.GeoPreference))
		}
		profile.GeoPreference = *patch.GeoPreference
	}
	if patch.Industries != nil {
		for _, tag := range *patch.Industries {
			if !containsOption(scoring.Industries, tag) {
				return nil, errors.InvalidOption(fmt.Sprintf("%q is not a known industry", tag))
			}
		}
		profile.Industries = pq.StringArray(*patch.Industries)
	}
	if patch.Description != nil {
		profile.Description = strings.TrimSpace(*patch.Description)
	}

	if err := s.repos.Profile.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Delete removes the caller's profile and everything hanging off it
func (s *profileService) Delete(userID, profileID uuid.UUID) error {
	profile, err := s.repos.Profile.GetByID(profileID)
	if err != nil {
		return err
	}
	if profile.UserID != userID {
		return errors.Forbidden("only the owner may delete this profile", nil)
	}
	return s.repos.Profile.Delete(profileID)
}

// CreateFromAnswers builds a profile from a free-form answer set. The
// profile starts incomplete; Finalize activates it once every required field
// is in place.
func (s *profileService) CreateFromAnswers(userID uuid.UUID, role string, raw map[string]interface{}) (*models.Profile, error) {
	answers, err := onboarding.CollectAnswers(role, raw)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.User.GetByID(userID)
	if err != nil {
		return nil, err
	}

	profile, err := buildProfile(userID, user.Email, role, answers)
	if err != nil {
		return nil, err
	}
	return s.saveProfile(profile)
}

// Finalize activates an incomplete profile, making it visible to
// opposite-role discovery queues. Fails when any required-by-role field is
// still empty.
func (s *profileService) Finalize(userID, profileID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repos.Profile.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, errors.Forbidden("only the owner may finalize this profile", nil)
	}

	if missing := missingRequiredField(profile); missing != "" {
		return nil, errors.IncompleteProfile(fmt.Sprintf("%s must be set before the profile can go live", missing))
	}

	if profile.CompletedOnboarding {
		return profile, nil
	}
	profile.CompletedOnboarding = true
	if err := s.repos.Profile.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// CompleteOnboarding materializes a finalized profile from the full answer
// set. Rerunning onboarding overwrites the existing profile in place.
func (s *profileService) CompleteOnboarding(userID uuid.UUID, email, role string, answers map[string]onboarding.Answer) (*models.Profile, error) {
	profile, err := buildProfile(userID, email, role, answers)
	if err != nil {
		return nil, err
	}
	profile.CompletedOnboarding = true
	return s.saveProfile(profile)
}

// buildProfile maps validated onboarding answers onto typed profile columns
func buildProfile(userID uuid.UUID, email, role string, answers map[string]onboarding.Answer) (*models.Profile, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, errors.InternalError("failed to encode answers", err)
	}

	profile := &models.Profile{
		UserID:  userID,
		Role:    role,
		Answers: raw,
	}

	switch role {
	case string(models.RoleSeller):
		profile.DisplayName = answers["businessName"].Value
		if industry := answers["industry"].Value; industry != "" {
			profile.Industries = pq.StringArray{industry}
		}
		profile.SizeBand = answers["revenue"].Value
		profile.TimelineBand = answers["timeline"].Value
		profile.Description = answers["sellingReason"].Value
		profile.LocationCity, profile.LocationRegion = splitLocation(answers["location"].Value)
	case string(models.RoleBuyer):
		profile.DisplayName = emailLocalPart(email)
		profile.Industries = pq.StringArray(answers["targetIndustries"].Values)
		profile.SizeBand = answers["capitalAvailable"].Value
		profile.TimelineBand = answers["timeline"].Value
		profile.GeoPreference = answers["geography"].Value
		profile.Description = answers["investorType"].Value
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown role %q", role), nil)
	}
	return profile, nil
}

// missingRequiredField names the first empty required-by-role field, or ""
func missingRequiredField(p *models.Profile) string {
	switch {
	case p.DisplayName == "":
		return "display name"
	case len(p.Industries) == 0:
		return "industries"
	case p.SizeBand == "":
		return "size band"
	case p.TimelineBand == "":
		return "timeline"
	case p.Description == "":
		return "description"
	}
	if p.Role == string(models.RoleSeller) && p.LocationCity == "" {
		return "location"
	}
	if p.Role == string(models.RoleBuyer) && p.GeoPreference == "" {
		return "geographic preference"
	}
	return ""
}

// saveProfile upserts by owner: a rerun overwrites the existing profile in
// place, keeping its identity
func (s *profileService) saveProfile(profile *models.Profile) (*models.Profile, error) {
	existing, err := s.repos.Profile.GetByUserID(profile.UserID)
	if err == nil {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		if err := s.repos.Profile.Update(profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	if !errors.Is(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	if err := s.repos.Profile.Create(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// splitLocation parses a free-form "City, Region" answer
func splitLocation(loc string) (city, region string) {
	parts := strings.SplitN(loc, ",", 2)
	city = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		region = strings.TrimSpace(parts[1])
	}
	return city, region
}

// emailLocalPart derives a default display name from an email address
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

func containsOption(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
