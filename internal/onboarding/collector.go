package onboarding

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
)

// Collector walks users through their role's step flow, validating and
// accumulating answers.
type Collector struct {
	store *SessionStore
}

// NewCollector creates a collector over the given session store
func NewCollector(store *SessionStore) *Collector {
	return &Collector{store: store}
}

// StepResult reports the outcome of a step submission
type StepResult struct {
	Session    *Session `json:"session"`
	StepIndex  int      `json:"step_index"`
	TotalSteps int      `json:"total_steps"`
	Completed  bool     `json:"completed"`
	NextStep   *Step    `json:"next_step,omitempty"`
}

// Start opens a new session for the user's role
func (c *Collector) Start(userID uuid.UUID, role string) (*Session, error) {
	if _, err := StepsFor(role); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		Answers:   make(map[string]Answer),
		CreatedAt: time.Now(),
	}
	c.store.Put(sess)
	return sess, nil
}

// Get returns a live session
func (c *Collector) Get(sessionID uuid.UUID) (*Session, error) {
	sess, ok := c.store.Get(sessionID)
	if !ok {
		return nil, errors.NotFound("onboarding session not found or expired", nil)
	}
	return sess, nil
}

// SubmitStep validates the submitted answers against the session's current
// step, merges them, and advances. On the final step the session is
// discarded and the result carries the full answer set via Session.
//
// Multiselect semantics: an array submission merges values into the set
// (resubmitting the same array is a no-op, so retries are safe); a single
// string toggles that value's membership, matching the UI's tap behavior.
func (c *Collector) SubmitStep(sessionID uuid.UUID, raw map[string]interface{}) (*StepResult, error) {
	sess, ok := c.store.Get(sessionID)
	if !ok {
		return nil, errors.NotFound("onboarding session not found or expired", nil)
	}

	steps, err := StepsFor(sess.Role)
	if err != nil {
		return nil, err
	}
	if sess.StepIndex >= len(steps) {
		return nil, errors.Conflict("onboarding already completed", nil)
	}

	step := steps[sess.StepIndex]
	for _, q := range step.Questions {
		if err := c.applyAnswer(sess, q, raw); err != nil {
			return nil, err
		}
	}

	// Every question in this flow is required; the step only advances once
	// all of them hold a non-empty answer.
	for _, q := range step.Questions {
		ans, ok := sess.Answers[q.ID]
		if !ok {
			return nil, errors.RequiredFieldMissing(fmt.Sprintf("answer required for %q", q.ID))
		}
		if q.Type == TypeMultiselect && len(ans.Values) == 0 {
			return nil, errors.RequiredFieldMissing(fmt.Sprintf("at least one selection required for %q", q.ID))
		}
	}

	sess.StepIndex++
	c.store.Put(sess)

	result := &StepResult{
		Session:    sess,
		StepIndex:  sess.StepIndex,
		TotalSteps: len(steps),
	}
	if sess.StepIndex >= len(steps) {
		result.Completed = true
		c.store.Delete(sess.ID)
	} else {
		next := steps[sess.StepIndex]
		result.NextStep = &next
	}
	return result, nil
}

func (c *Collector) applyAnswer(sess *Session, q Question, raw map[string]interface{}) error {
	return applyRawAnswer(sess.Answers, q, raw)
}

func applyRawAnswer(answers map[string]Answer, q Question, raw map[string]interface{}) error {
	val, present := raw[q.ID]
	if !present {
		return nil // may already be answered from an earlier submission
	}

	switch q.Type {
	case TypeText:
		s, ok := val.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return errors.RequiredFieldMissing(fmt.Sprintf("%q requires a non-empty answer", q.ID))
		}
		answers[q.ID] = Answer{Value: strings.TrimSpace(s)}

	case TypeSelect:
		s, ok := val.(string)
		if !ok || s == "" {
			return errors.RequiredFieldMissing(fmt.Sprintf("%q requires a selection", q.ID))
		}
		if !contains(q.Options, s) {
			return errors.InvalidOption(fmt.Sprintf("%q is not an option for %q", s, q.ID))
		}
		answers[q.ID] = Answer{Value: s}

	case TypeMultiselect:
		switch v := val.(type) {
		case string:
			if !contains(q.Options, v) {
				return errors.InvalidOption(fmt.Sprintf("%q is not an option for %q", v, q.ID))
			}
			answers[q.ID] = Answer{Values: toggle(answers[q.ID].Values, v)}
		case []interface{}:
			merged := answers[q.ID].Values
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return errors.InvalidInput(fmt.Sprintf("%q expects string values", q.ID), nil)
				}
				if !contains(q.Options, s) {
					return errors.InvalidOption(fmt.Sprintf("%q is not an option for %q", s, q.ID))
				}
				if !contains(merged, s) {
					merged = append(merged, s)
				}
			}
			answers[q.ID] = Answer{Values: merged}
		default:
			return errors.InvalidInput(fmt.Sprintf("%q expects a value or list of values", q.ID), nil)
		}
	}
	return nil
}

// CollectAnswers validates a free-form answer set against the role's
// question flow without a session. Answers for unknown questions are ignored
// and missing answers are allowed; completeness is the profile store's
// concern at finalize time.
func CollectAnswers(role string, raw map[string]interface{}) (map[string]Answer, error) {
	steps, err := StepsFor(role)
	if err != nil {
		return nil, err
	}

	answers := make(map[string]Answer)
	for _, step := range steps {
		for _, q := range step.Questions {
			if err := applyRawAnswer(answers, q, raw); err != nil {
				return nil, err
			}
		}
	}
	return answers, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func toggle(set []string, v string) []string {
	for i, s := range set {
		if s == v {
			return append(set[:i], set[i+1:]...)
		}
	}
	return append(set, v)
}
