package services

import (
	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/onboarding"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
)

// onboardingService implements OnboardingService. The collector owns step
// validation; this layer ties sessions to accounts and finalizes the profile
// when the flow completes.
type onboardingService struct {
	collector *onboarding.Collector
	repos     *repository.Repositories
	profiles  ProfileService
}

func newOnboardingService(collector *onboarding.Collector, repos *repository.Repositories, profiles ProfileService) OnboardingService {
	return &onboardingService{
		collector: collector,
		repos:     repos,
		profiles:  profiles,
	}
}

// Start opens a session for the caller's account role
func (s *onboardingService) Start(userID uuid.UUID) (*onboarding.Session, *onboarding.Step, error) {
	user, err := s.repos.User.GetByID(userID)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.collector.Start(userID, user.Role)
	if err != nil {
		return nil, nil, err
	}

	steps, err := onboarding.StepsFor(user.Role)
	if err != nil {
		return nil, nil, err
	}
	first := steps[0]
	return sess, &first, nil
}

// Get returns the caller's live session and its current step
func (s *onboardingService) Get(sessionID, userID uuid.UUID) (*onboarding.Session, *onboarding.Step, error) {
	sess, err := s.collector.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.UserID != userID {
		return nil, nil, errors.Forbidden("session belongs to another user", nil)
	}

	steps, err := onboarding.StepsFor(sess.Role)
	if err != nil {
		return nil, nil, err
	}
	if sess.StepIndex >= len(steps) {
		return sess, nil, nil
	}
	current := steps[sess.StepIndex]
	return sess, &current, nil
}

// Submit validates a step submission and, on the final step, finalizes the
// caller's profile from the accumulated answers
func (s *onboardingService) Submit(sessionID, userID uuid.UUID, answers map[string]interface{}) (*SubmitResult, error) {
	sess, err := s.collector.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, errors.Forbidden("session belongs to another user", nil)
	}

	res, err := s.collector.SubmitStep(sessionID, answers)
	if err != nil {
		return nil, err
	}

	out := &SubmitResult{
		StepIndex:  res.StepIndex,
		TotalSteps: res.TotalSteps,
		Completed:  res.Completed,
		NextStep:   res.NextStep,
	}

	if res.Completed {
		user, err := s.repos.User.GetByID(userID)
		if err != nil {
			return nil, err
		}
		profile, err := s.profiles.CompleteOnboarding(userID, user.Email, sess.Role, res.Session.Answers)
		if err != nil {
			return nil, err
		}
		out.Profile = profile
	}

	return out, nil
}
