package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/cryptox"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/repositories/kv"
	"github.com/dmitrijs2005/diarykeeper/internal/logging"
	"github.com/google/uuid"
)

// DefaultRegistryKey is the fixed application key the profile list is
// stored under. It only obfuscates; existing stores depend on it.
const DefaultRegistryKey = "MyDiaryApp2024"

// UserRegistry manages the device's profile list.
//
// Contract:
//   - LoadUsers never fails; unreadable data yields an empty list.
//   - SaveUsers overwrites the whole list.
//   - ResetPasscode commits the registry first and re-encrypts the vault
//     second; the two writes are not atomic.
type UserRegistry interface {
	CreateUser(ctx context.Context, in models.NewUser) (*models.User, error)
	Authenticate(ctx context.Context, userID, secret string) (*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, bool)
	LoadUsers(ctx context.Context) []models.User
	SaveUsers(ctx context.Context, users []models.User) error
	FindByName(ctx context.Context, name string) (*models.User, bool)
	VerifySecurityAnswer(ctx context.Context, userID, answer string) bool
	ResetPasscode(ctx context.Context, userID, newSecret string) (bool, error)
	DeleteUser(ctx context.Context, userID string) error
}

// RegistryOption customizes a UserRegistry.
type RegistryOption func(*userRegistry)

// WithRegistryKey overrides DefaultRegistryKey.
func WithRegistryKey(key string) RegistryOption {
	return func(r *userRegistry) { r.key = key }
}

// WithRekeyInterruption installs a hook that runs after ResetPasscode has
// committed the registry and before the vault is re-encrypted. A non-nil
// error from the hook aborts the reset at that point, leaving the vault
// under the old secret.
func WithRekeyInterruption(fn func(ctx context.Context, userID string) error) RegistryOption {
	return func(r *userRegistry) { r.interrupt = fn }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *userRegistry) { r.now = now }
}

type userRegistry struct {
	store     kv.Store
	vault     EntryVault
	log       logging.Logger
	key       string
	interrupt func(ctx context.Context, userID string) error
	now       func() time.Time
}

// NewUserRegistry returns a registry persisted in store. vault is used for
// re-encryption on passcode reset and cleanup on profile deletion.
func NewUserRegistry(store kv.Store, vault EntryVault, log logging.Logger, opts ...RegistryOption) UserRegistry {
	r := &userRegistry{
		store: store,
		vault: vault,
		log:   log,
		key:   DefaultRegistryKey,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *userRegistry) LoadUsers(ctx context.Context) []models.User {
	raw, ok, err := r.store.Get(ctx, common.UsersKey)
	if err != nil {
		r.log.Warn(ctx, "failed to load users", "error", err)
		return []models.User{}
	}
	if !ok {
		return []models.User{}
	}

	plain, err := cryptox.Decrypt(raw, r.key)
	if err != nil {
		r.log.Warn(ctx, "failed to load users", "error", err)
		return []models.User{}
	}

	var users []models.User
	if err := json.Unmarshal([]byte(plain), &users); err != nil {
		r.log.Warn(ctx, "failed to load users", "error", err)
		return []models.User{}
	}
	if users == nil {
		users = []models.User{}
	}
	return users
}

func (r *userRegistry) SaveUsers(ctx context.Context, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}

	plain, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to serialize users: %w", err)
	}

	ct, err := cryptox.Encrypt(string(plain), r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt users: %w", err)
	}

	if err := r.store.Set(ctx, common.UsersKey, ct); err != nil {
		r.log.Error(ctx, "registry write failed", "users", len(users), "error", err)
		return err
	}
	return nil
}

func (r *userRegistry) Get(ctx context.Context, userID string) (*models.User, bool) {
	for _, u := range r.LoadUsers(ctx) {
		if u.ID == userID {
			return &u, true
		}
	}
	return nil, false
}

func (r *userRegistry) FindByName(ctx context.Context, name string) (*models.User, bool) {
	if strings.TrimSpace(name) == "" {
		return nil, false
	}
	for _, u := range r.LoadUsers(ctx) {
		if u.MatchesName(name) {
			return &u, true
		}
	}
	return nil, false
}

func (r *userRegistry) VerifySecurityAnswer(ctx context.Context, userID, answer string) bool {
	u, ok := r.Get(ctx, userID)
	if !ok {
		return false
	}
	return u.MatchesAnswer(answer)
}

func (r *userRegistry) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	in = in.Normalize()
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if in.SecretCode == models.PlaceholderSecret {
		return nil, fmt.Errorf("%w: secret code is reserved", common.ErrValidation)
	}

	u := models.User{
		ID:               uuid.NewString(),
		Name:             in.Name,
		SecretCode:       in.SecretCode,
		Avatar:           in.Avatar,
		CreatedAt:        r.now().UTC(),
		SecurityQuestion: in.SecurityQuestion,
		SecurityAnswer:   in.SecurityAnswer,
	}

	users := append(r.LoadUsers(ctx), u)
	if err := r.SaveUsers(ctx, users); err != nil {
		return nil, err
	}

	r.log.Info(ctx, "profile created", "user_id", u.ID)
	return &u, nil
}

func (r *userRegistry) Authenticate(ctx context.Context, userID, secret string) (*models.User, error) {
	u, ok := r.Get(ctx, userID)
	if !ok {
		return nil, common.ErrUserNotFound
	}
	if u.NeedsPasscodeReset() {
		return nil, common.ErrPasscodeResetRequired
	}
	if subtle.ConstantTimeCompare([]byte(u.SecretCode), []byte(secret)) != 1 {
		return nil, common.ErrInvalidSecret
	}
	return u, nil
}

func (r *userRegistry) ResetPasscode(ctx context.Context, userID, newSecret string) (bool, error) {
	if len(newSecret) < models.MinSecretLength || newSecret == models.PlaceholderSecret {
		return false, fmt.Errorf("%w: secret code must be at least %d characters", common.ErrValidation, models.MinSecretLength)
	}

	users := r.LoadUsers(ctx)
	idx := -1
	for i := range users {
		if users[i].ID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.log.Warn(ctx, "user not found for passcode reset", "user_id", userID)
		return false, nil
	}

	oldSecret := users[idx].SecretCode
	users[idx].SecretCode = newSecret
	if err := r.SaveUsers(ctx, users); err != nil {
		return false, fmt.Errorf("failed to save new passcode: %w", err)
	}

	if r.interrupt != nil {
		if err := r.interrupt(ctx, userID); err != nil {
			r.log.Error(ctx, "passcode reset interrupted before re-encryption", "user_id", userID, "error", err)
			return true, fmt.Errorf("passcode changed but entries were not re-encrypted: %w", err)
		}
	}

	if err := r.vault.Rekey(ctx, userID, oldSecret, newSecret); err != nil {
		return true, err
	}

	r.log.Info(ctx, "passcode reset", "user_id", userID)
	return true, nil
}

func (r *userRegistry) DeleteUser(ctx context.Context, userID string) error {
	users := r.LoadUsers(ctx)
	kept := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return common.ErrUserNotFound
	}

	if err := r.SaveUsers(ctx, kept); err != nil {
		return err
	}
	if err := r.vault.Clear(ctx, userID); err != nil {
		return err
	}

	r.log.Info(ctx, "profile deleted", "user_id", userID)
	return nil
}
