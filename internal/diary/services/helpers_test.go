package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/repositories/kv"
	"github.com/dmitrijs2005/diarykeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

// env wires every service over one in-memory store.
type env struct {
	store    *kv.MemoryStore
	vault    EntryVault
	registry UserRegistry
	codec    BackupCodec
	merge    MergeEngine
}

func newEnv(t *testing.T, opts ...RegistryOption) *env {
	t.Helper()
	return newEnvWithStore(t, kv.NewMemoryStore(0), 0, opts...)
}

func newEnvWithStore(t *testing.T, store *kv.MemoryStore, maxVault int64, opts ...RegistryOption) *env {
	t.Helper()
	log := logging.Discard()

	vault := NewEntryVault(store, log, maxVault)
	vault.(*entryVault).now = func() time.Time { return fixedNow }

	opts = append([]RegistryOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	registry := NewUserRegistry(store, vault, log, opts...)

	codec := NewBackupCodec(registry, log)
	codec.(*backupCodec).now = func() time.Time { return fixedNow }

	return &env{
		store:    store,
		vault:    vault,
		registry: registry,
		codec:    codec,
		merge:    NewMergeEngine(registry, vault, codec, log),
	}
}

func (e *env) createUser(t *testing.T, name, secret string) *models.User {
	t.Helper()
	u, err := e.registry.CreateUser(context.Background(), models.NewUser{
		Name:             name,
		SecretCode:       secret,
		SecurityQuestion: "First pet?",
		SecurityAnswer:   "Rex",
	})
	require.NoError(t, err)
	return u
}

func entry(id, userID, date, content string) models.DiaryEntry {
	return models.DiaryEntry{
		ID:        id,
		UserID:    userID,
		Date:      date,
		Content:   content,
		PageType:  models.PageRuled,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}

func ids(entries []models.DiaryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// faultyStore wraps a MemoryStore and fails operations on keys with the
// configured prefixes.
type faultyStore struct {
	*kv.MemoryStore
	failGet string
	failSet string
}

var errDisk = errors.New("disk unavailable")

func (f *faultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet != "" && strings.HasPrefix(key, f.failGet) {
		return "", false, errDisk
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key, value string) error {
	if f.failSet != "" && strings.HasPrefix(key, f.failSet) {
		return errDisk
	}
	return f.MemoryStore.Set(ctx, key, value)
}
