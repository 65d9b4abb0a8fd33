package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	apperrors "github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/onboarding"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
)

func newProfileFixture(t *testing.T) (*profileService, *repository.Repositories) {
	t.Helper()
	repos, _ := newMemRepositories()
	return newProfileService(repos), repos
}

func sellerAnswers() map[string]onboarding.Answer {
	return map[string]onboarding.Answer{
		"businessName":    {Value: "CloudSync Solutions"},
		"industry":        {Value: "Technology"},
		"yearsInBusiness": {Value: "3-5 years"},
		"revenue":         {Value: "$1M-$5M"},
		"employees":       {Value: "6-25"},
		"location":        {Value: "Denver, CO"},
		"sellingReason":   {Value: "Retirement"},
		"timeline":        {Value: "6-12 months"},
		"askingPrice":     {Value: "$5M-$10M"},
	}
}

func buyerAnswers() map[string]onboarding.Answer {
	return map[string]onboarding.Answer{
		"investorType":     {Value: "Private Equity"},
		"experience":       {Value: "4-10 acquisitions"},
		"capitalAvailable": {Value: "$5M-$10M"},
		"targetIndustries": {Values: []string{"Technology", "Healthcare"}},
		"preferredSize":    {Value: "$1M-$5M revenue"},
		"geography":        {Value: "No preference"},
		"involvement":      {Value: "Hands-on operator"},
		"timeline":         {Value: "3-6 months"},
		"dealStructure":    {Value: "Full acquisition"},
	}
}

func TestCompleteOnboardingSellerMapping(t *testing.T) {
	svc, _ := newProfileFixture(t)
	u := &models.User{ID: uuid.New(), Email: "maria@cloudsync.io", Role: string(models.RoleSeller)}

	p, err := svc.CompleteOnboarding(u.ID, u.Email, u.Role, sellerAnswers())
	require.NoError(t, err)
	assert.True(t, p.CompletedOnboarding)
	assert.Equal(t, "CloudSync Solutions", p.DisplayName)
	assert.Equal(t, []string{"Technology"}, []string(p.Industries))
	assert.Equal(t, "$1M-$5M", p.SizeBand)
	assert.Equal(t, "6-12 months", p.TimelineBand)
	assert.Equal(t, "Denver", p.LocationCity)
	assert.Equal(t, "CO", p.LocationRegion)
	assert.Equal(t, "Retirement", p.Description)
	assert.NotEmpty(t, p.Answers)
}

func TestCompleteOnboardingBuyerMapping(t *testing.T) {
	svc, _ := newProfileFixture(t)
	u := &models.User{ID: uuid.New(), Email: "invest@capitalfund.com", Role: string(models.RoleBuyer)}

	p, err := svc.CompleteOnboarding(u.ID, u.Email, u.Role, buyerAnswers())
	require.NoError(t, err)
	assert.Equal(t, "invest", p.DisplayName)
	assert.Equal(t, []string{"Technology", "Healthcare"}, []string(p.Industries))
	assert.Equal(t, "$5M-$10M", p.SizeBand)
	assert.Equal(t, "3-6 months", p.TimelineBand)
	assert.Equal(t, "No preference", p.GeoPreference)
}

func TestCompleteOnboardingRerunOverwritesInPlace(t *testing.T) {
	svc, _ := newProfileFixture(t)
	u := &models.User{ID: uuid.New(), Email: "maria@cloudsync.io", Role: string(models.RoleSeller)}

	first, err := svc.CompleteOnboarding(u.ID, u.Email, u.Role, sellerAnswers())
	require.NoError(t, err)

	answers := sellerAnswers()
	answers["businessName"] = onboarding.Answer{Value: "CloudSync Holdings"}
	second, err := svc.CompleteOnboarding(u.ID, u.Email, u.Role, answers)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "CloudSync Holdings", second.DisplayName)
}

func rawSellerAnswers() map[string]interface{} {
	raw := make(map[string]interface{})
	for id, ans := range sellerAnswers() {
		raw[id] = ans.Value
	}
	return raw
}

func TestCreateFromAnswersStartsIncomplete(t *testing.T) {
	svc, repos := newProfileFixture(t)
	u := seedUser(repos, string(models.RoleSeller))

	p, err := svc.CreateFromAnswers(u.ID, u.Role, rawSellerAnswers())
	require.NoError(t, err)
	assert.False(t, p.CompletedOnboarding)
	assert.Equal(t, "CloudSync Solutions", p.DisplayName)

	finalized, err := svc.Finalize(u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, finalized.CompletedOnboarding)

	stored, err := repos.Profile.GetByID(p.ID)
	require.NoError(t, err)
	assert.True(t, stored.CompletedOnboarding)
}

func TestFinalizeRejectsMissingRequiredFields(t *testing.T) {
	svc, repos := newProfileFixture(t)
	u := seedUser(repos, string(models.RoleSeller))

	raw := rawSellerAnswers()
	delete(raw, "sellingReason")
	p, err := svc.CreateFromAnswers(u.ID, u.Role, raw)
	require.NoError(t, err)

	_, err = svc.Finalize(u.ID, p.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeIncompleteProfile, apperrors.CodeOf(err))
}

func TestCreateFromAnswersValidatesOptions(t *testing.T) {
	svc, repos := newProfileFixture(t)
	u := seedUser(repos, string(models.RoleSeller))

	raw := rawSellerAnswers()
	raw["revenue"] = "tons of money"
	_, err := svc.CreateFromAnswers(u.ID, u.Role, raw)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidOption, apperrors.CodeOf(err))
}

func TestFinalizeIsOwnerOnly(t *testing.T) {
	svc, repos := newProfileFixture(t)
	u := seedUser(repos, string(models.RoleSeller))
	other := seedUser(repos, string(models.RoleBuyer))

	p, err := svc.CreateFromAnswers(u.ID, u.Role, rawSellerAnswers())
	require.NoError(t, err)

	_, err = svc.Finalize(other.ID, p.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))
}

func TestUpdateIsOwnerOnly(t *testing.T) {
	svc, repos := newProfileFixture(t)
	_, sellerProfile := seedSeller(repos)
	otherUser, _ := seedBuyer(repos)

	name := "Hostile Rename"
	_, err := svc.Update(otherUser.ID, sellerProfile.ID, &models.ProfilePatch{DisplayName: &name})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))
}

func TestUpdateValidatesOptions(t *testing.T) {
	svc, repos := newProfileFixture(t)
	sellerUser, sellerProfile := seedSeller(repos)

	bad := "a few million"
	_, err := svc.Update(sellerUser.ID, sellerProfile.ID, &models.ProfilePatch{SizeBand: &bad})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidOption, apperrors.CodeOf(err))

	geo := "Regional"
	_, err = svc.Update(sellerUser.ID, sellerProfile.ID, &models.ProfilePatch{GeoPreference: &geo})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

func TestUpdateAppliesPatch(t *testing.T) {
	svc, repos := newProfileFixture(t)
	sellerUser, sellerProfile := seedSeller(repos)

	band := "$5M-$10M"
	industries := []string{"Technology", "Healthcare"}
	updated, err := svc.Update(sellerUser.ID, sellerProfile.ID, &models.ProfilePatch{
		SizeBand:   &band,
		Industries: &industries,
	})
	require.NoError(t, err)
	assert.Equal(t, "$5M-$10M", updated.SizeBand)
	assert.Equal(t, industries, []string(updated.Industries))

	stored, err := repos.Profile.GetByID(sellerProfile.ID)
	require.NoError(t, err)
	assert.Equal(t, "$5M-$10M", stored.SizeBand)
}

func TestDeleteIsOwnerOnly(t *testing.T) {
	svc, repos := newProfileFixture(t)
	sellerUser, sellerProfile := seedSeller(repos)
	otherUser, _ := seedBuyer(repos)

	err := svc.Delete(otherUser.ID, sellerProfile.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))

	require.NoError(t, svc.Delete(sellerUser.ID, sellerProfile.ID))
	_, err = repos.Profile.GetByID(sellerProfile.ID)
	require.Error(t, err)
}
