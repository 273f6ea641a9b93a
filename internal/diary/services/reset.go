package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
)

// ResetStep is a state of the passcode reset flow.
type ResetStep int

const (
	StepAwaitingName ResetStep = iota
	StepAwaitingAnswer
	StepAwaitingNewSecret
	StepDone
)

func (s ResetStep) String() string {
	switch s {
	case StepAwaitingName:
		return "awaiting-name"
	case StepAwaitingAnswer:
		return "awaiting-security-answer"
	case StepAwaitingNewSecret:
		return "awaiting-new-secret"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("ResetStep(%d)", int(s))
	}
}

// ResetFlow walks a user through replacing a forgotten secret code:
// name, then security answer, then the new secret. Steps only move forward;
// a failed step may be retried, and Restart goes back to the beginning.
type ResetFlow struct {
	registry UserRegistry
	step     ResetStep
	user     *models.User
}

func NewResetFlow(registry UserRegistry) *ResetFlow {
	return &ResetFlow{registry: registry}
}

func (f *ResetFlow) Step() ResetStep { return f.step }

// User returns the profile being reset once the name step has passed.
func (f *ResetFlow) User() *models.User { return f.user }

// Restart discards progress.
func (f *ResetFlow) Restart() {
	f.step = StepAwaitingName
	f.user = nil
}

// SubmitName looks the profile up and returns its security question.
func (f *ResetFlow) SubmitName(ctx context.Context, name string) (string, error) {
	if f.step != StepAwaitingName {
		return "", f.outOfOrder(StepAwaitingName)
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: please enter your name", common.ErrValidation)
	}

	u, ok := f.registry.FindByName(ctx, name)
	if !ok {
		return "", fmt.Errorf("%w: no profile found with that name", common.ErrUserNotFound)
	}

	f.user = u
	f.step = StepAwaitingAnswer
	return u.SecurityQuestion, nil
}

func (f *ResetFlow) SubmitAnswer(ctx context.Context, answer string) error {
	if f.step != StepAwaitingAnswer {
		return f.outOfOrder(StepAwaitingAnswer)
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("%w: please answer the security question", common.ErrValidation)
	}
	if !f.registry.VerifySecurityAnswer(ctx, f.user.ID, answer) {
		return common.ErrSecurityAnswerMismatch
	}

	f.step = StepAwaitingNewSecret
	return nil
}

// SubmitNewSecret stores the new secret and re-encrypts the user's entries.
func (f *ResetFlow) SubmitNewSecret(ctx context.Context, secret string) error {
	if f.step != StepAwaitingNewSecret {
		return f.outOfOrder(StepAwaitingNewSecret)
	}
	if len(secret) < models.MinSecretLength {
		return fmt.Errorf("%w: new secret code must be at least %d characters", common.ErrValidation, models.MinSecretLength)
	}

	ok, err := f.registry.ResetPasscode(ctx, f.user.ID, secret)
	if !ok {
		if err == nil {
			err = common.ErrUserNotFound
		}
		return err
	}

	// the registry has committed; a re-encryption error does not undo it
	f.step = StepDone
	f.user.SecretCode = secret
	return err
}

func (f *ResetFlow) outOfOrder(want ResetStep) error {
	return fmt.Errorf("%w: at %s, expected %s", common.ErrInvalidResetStep, f.step, want)
}
