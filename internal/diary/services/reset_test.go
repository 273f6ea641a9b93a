package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetFlow_HappyPath(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "Alice", "1234")
	require.NoError(t, e.vault.Save(ctx, u.ID, []models.DiaryEntry{entry("e1", u.ID, "2024-03-01", "x")}, "1234"))

	f := NewResetFlow(e.registry)
	assert.Equal(t, StepAwaitingName, f.Step())

	q, err := f.SubmitName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "First pet?", q)
	assert.Equal(t, StepAwaitingAnswer, f.Step())

	require.NoError(t, f.SubmitAnswer(ctx, " REX "))
	assert.Equal(t, StepAwaitingNewSecret, f.Step())

	require.NoError(t, f.SubmitNewSecret(ctx, "5678"))
	assert.Equal(t, StepDone, f.Step())
	assert.Equal(t, "5678", f.User().SecretCode)

	_, err = e.registry.Authenticate(ctx, u.ID, "5678")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids(e.vault.Load(ctx, u.ID, "5678")))
}

func TestResetFlow_OutOfOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.createUser(t, "Alice", "1234")

	f := NewResetFlow(e.registry)
	require.ErrorIs(t, f.SubmitAnswer(ctx, "rex"), common.ErrInvalidResetStep)
	require.ErrorIs(t, f.SubmitNewSecret(ctx, "5678"), common.ErrInvalidResetStep)

	_, err := f.SubmitName(ctx, "Alice")
	require.NoError(t, err)

	_, err = f.SubmitName(ctx, "Alice")
	require.ErrorIs(t, err, common.ErrInvalidResetStep)
	require.ErrorIs(t, f.SubmitNewSecret(ctx, "5678"), common.ErrInvalidResetStep, "answer step cannot be skipped")
}

func TestResetFlow_FailedStepsStayPut(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.createUser(t, "Alice", "1234")

	f := NewResetFlow(e.registry)

	_, err := f.SubmitName(ctx, "Bob")
	require.ErrorIs(t, err, common.ErrUserNotFound)
	_, err = f.SubmitName(ctx, "  ")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, StepAwaitingName, f.Step())

	_, err = f.SubmitName(ctx, "Alice")
	require.NoError(t, err)

	require.ErrorIs(t, f.SubmitAnswer(ctx, "max"), common.ErrSecurityAnswerMismatch)
	assert.Equal(t, StepAwaitingAnswer, f.Step())

	require.NoError(t, f.SubmitAnswer(ctx, "rex"))
	require.ErrorIs(t, f.SubmitNewSecret(ctx, "12"), common.ErrValidation)
	assert.Equal(t, StepAwaitingNewSecret, f.Step())
}

func TestResetFlow_Restart(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.createUser(t, "Alice", "1234")

	f := NewResetFlow(e.registry)
	_, err := f.SubmitName(ctx, "Alice")
	require.NoError(t, err)

	f.Restart()
	assert.Equal(t, StepAwaitingName, f.Step())
	assert.Nil(t, f.User())

	_, err = f.SubmitName(ctx, "Alice")
	require.NoError(t, err)
}

func TestResetStep_String(t *testing.T) {
	assert.Equal(t, "awaiting-security-answer", StepAwaitingAnswer.String())
	assert.Equal(t, "done", StepDone.String())
}
