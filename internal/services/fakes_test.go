package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
)

// In-memory repository fakes mirroring the SQL implementations' contracts:
// queue ordering, decide-once semantics, conditional deal updates, and
// at-most-one deal per pair.

type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	profiles map[uuid.UUID]*models.Profile
	entries  map[string]*models.QueueEntry
	cursors  map[uuid.UUID]int
	deals    map[uuid.UUID]*models.Deal
	insights map[uuid.UUID][]models.InsightReport
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*models.User),
		profiles: make(map[uuid.UUID]*models.Profile),
		entries:  make(map[string]*models.QueueEntry),
		cursors:  make(map[uuid.UUID]int),
		deals:    make(map[uuid.UUID]*models.Deal),
		insights: make(map[uuid.UUID][]models.InsightReport),
	}
}

func newMemRepositories() (*repository.Repositories, *memStore) {
	store := newMemStore()
	repos := &repository.Repositories{
		Profile: &memProfileRepo{store},
		Queue:   &memQueueRepo{store},
		Deal:    &memDealRepo{store},
		User:    &memUserRepo{store},
	}
	repos.Tx = &memTx{repos}
	return repos, store
}

func entryKey(viewerID, candidateID uuid.UUID) string {
	return viewerID.String() + "/" + candidateID.String()
}

type memTx struct {
	repos *repository.Repositories
}

func (t *memTx) WithTransaction(fn func(repos *repository.Repositories) error) error {
	return fn(t.repos)
}

type memProfileRepo struct{ s *memStore }

func (r *memProfileRepo) GetByID(id uuid.UUID) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, apperrors.NotFound("profile not found", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *memProfileRepo) GetByUserID(userID uuid.UUID) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("profile not found", nil)
}

func (r *memProfileRepo) GetActiveByRole(role string) ([]models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Profile
	for _, p := range r.s.profiles {
		if p.Role == role && p.CompletedOnboarding {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *memProfileRepo) Create(profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	cp := *profile
	r.s.profiles[profile.ID] = &cp
	return nil
}

func (r *memProfileRepo) Update(profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[profile.ID]; !ok {
		return apperrors.NotFound("profile not found", nil)
	}
	cp := *profile
	r.s.profiles[profile.ID] = &cp
	return nil
}

func (r *memProfileRepo) Delete(id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[id]; !ok {
		return apperrors.NotFound("profile not found", nil)
	}
	delete(r.s.profiles, id)
	for k, e := range r.s.entries {
		if e.ViewerID == id || e.CandidateID == id {
			delete(r.s.entries, k)
		}
	}
	return nil
}

type memQueueRepo struct{ s *memStore }

func (r *memQueueRepo) GetEntries(viewerID uuid.UUID) ([]models.QueueEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.QueueEntry
	for _, e := range r.s.entries {
		if e.ViewerID == viewerID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CandidateID.String() < out[j].CandidateID.String()
	})
	return out, nil
}

func (r *memQueueRepo) GetEntry(viewerID, candidateID uuid.UUID) (*models.QueueEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[entryKey(viewerID, candidateID)]
	if !ok {
		return nil, apperrors.NotFound("queue entry not found", nil)
	}
	cp := *e
	return &cp, nil
}

func (r *memQueueRepo) UpsertScore(viewerID, candidateID uuid.UUID, score int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := entryKey(viewerID, candidateID)
	if e, ok := r.s.entries[key]; ok {
		e.Score = score
		e.UpdatedAt = time.Now()
		return nil
	}
	now := time.Now()
	r.s.entries[key] = &models.QueueEntry{
		ViewerID:    viewerID,
		CandidateID: candidateID,
		Score:       score,
		Decision:    models.DecisionUndecided,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (r *memQueueRepo) RecordDecision(viewerID, candidateID uuid.UUID, decision models.Decision, decidedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[entryKey(viewerID, candidateID)]
	if !ok || e.Decision != models.DecisionUndecided {
		return false, nil
	}
	e.Decision = decision
	e.DecidedAt = &decidedAt
	e.UpdatedAt = time.Now()
	return true, nil
}

func (r *memQueueRepo) GetCursor(viewerID uuid.UUID) (int, time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.cursors[viewerID], time.Time{}, nil
}

func (r *memQueueRepo) SetCursor(viewerID uuid.UUID, position int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cursors[viewerID] = position
	return nil
}

func (r *memQueueRepo) TouchRefreshed(viewerID uuid.UUID) error {
	return nil
}

func (r *memQueueRepo) ActiveViewerIDs() ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, e := range r.s.entries {
		if !seen[e.ViewerID] {
			seen[e.ViewerID] = true
			out = append(out, e.ViewerID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

type memDealRepo struct{ s *memStore }

func (r *memDealRepo) GetByID(id uuid.UUID) (*models.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deals[id]
	if !ok {
		return nil, apperrors.NotFound("deal not found", nil)
	}
	cp := *d
	return &cp, nil
}

func (r *memDealRepo) GetByPair(businessProfileID, buyerProfileID uuid.UUID) (*models.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.deals {
		if d.BusinessProfileID == businessProfileID && d.BuyerProfileID == buyerProfileID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("no deal for this pair", nil)
}

func (r *memDealRepo) ListByProfile(profileID uuid.UUID) ([]models.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Deal
	for _, d := range r.s.deals {
		if d.Involves(profileID) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *memDealRepo) Create(deal *models.Deal) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.deals {
		if d.BusinessProfileID == deal.BusinessProfileID && d.BuyerProfileID == deal.BuyerProfileID {
			return false, nil
		}
	}
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	now := time.Now()
	deal.CreatedAt = now
	deal.UpdatedAt = now
	cp := *deal
	r.s.deals[deal.ID] = &cp
	return true, nil
}

func (r *memDealRepo) AdvanceStage(id uuid.UUID, from, to pipeline.Stage, enteredAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deals[id]
	if !ok || d.Stage != from || d.Status != pipeline.StatusActive {
		return false, nil
	}
	d.Stage = to
	d.StageEnteredAt = enteredAt
	d.UpdatedAt = time.Now()
	return true, nil
}

func (r *memDealRepo) SetStatus(id uuid.UUID, from, to pipeline.Status, withdrawReason string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deals[id]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	d.WithdrawReason = withdrawReason
	d.UpdatedAt = time.Now()
	return true, nil
}

func (r *memDealRepo) AttachInsight(insight *models.InsightReport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if insight.ID == uuid.Nil {
		insight.ID = uuid.New()
	}
	insight.Position = len(r.s.insights[insight.DealID])
	insight.CreatedAt = time.Now()
	r.s.insights[insight.DealID] = append(r.s.insights[insight.DealID], *insight)
	return nil
}

func (r *memDealRepo) GetInsights(dealID uuid.UUID) ([]models.InsightReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.InsightReport, len(r.s.insights[dealID]))
	copy(out, r.s.insights[dealID])
	return out, nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) GetByID(id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found", nil)
}

func (r *memUserRepo) Create(user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) Delete(id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperrors.NotFound("user not found", nil)
	}
	delete(r.s.users, id)
	return nil
}

// Test fixture helpers

func seedUser(repos *repository.Repositories, role string) *models.User {
	u := &models.User{
		Email: fmt.Sprintf("%s-%s@example.com", role, uuid.New().String()[:8]),
		Role:  role,
	}
	if err := repos.User.Create(u); err != nil {
		panic(err)
	}
	return u
}

func seedSeller(repos *repository.Repositories) (*models.User, *models.Profile) {
	u := seedUser(repos, string(models.RoleSeller))
	p := &models.Profile{
		UserID:              u.ID,
		Role:                string(models.RoleSeller),
		DisplayName:         "CloudSync Solutions",
		LocationCity:        "Denver",
		LocationRegion:      "CO",
		LocationCountry:     "US",
		SizeBand:            "$1M-$5M",
		TimelineBand:        "6-12 months",
		Industries:          []string{"Technology"},
		CompletedOnboarding: true,
	}
	if err := repos.Profile.Create(p); err != nil {
		panic(err)
	}
	return u, p
}

func seedBuyer(repos *repository.Repositories) (*models.User, *models.Profile) {
	u := seedUser(repos, string(models.RoleBuyer))
	p := &models.Profile{
		UserID:              u.ID,
		Role:                string(models.RoleBuyer),
		DisplayName:         "buyer",
		SizeBand:            "$1M-$5M",
		TimelineBand:        "3-6 months",
		GeoPreference:       "No preference",
		Industries:          []string{"Technology", "SaaS"},
		CompletedOnboarding: true,
	}
	if err := repos.Profile.Create(p); err != nil {
		panic(err)
	}
	return u, p
}
