package services

import (
	"bytes"
	"context"
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

// DefaultMaxVaultBytes is the per-user soft ceiling checked before a write.
const DefaultMaxVaultBytes = 4 * 1024 * 1024

// LoadOutcome tells why a vault load produced the entries it did.
type LoadOutcome int

const (
	OutcomeLoaded LoadOutcome = iota
	OutcomeEmpty
	OutcomeDecodeFailed
	OutcomeStoreError
)

func (o LoadOutcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomeEmpty:
		return "empty"
	case OutcomeDecodeFailed:
		return "decode_failed"
	case OutcomeStoreError:
		return "store_error"
	default:
		return fmt.Sprintf("LoadOutcome(%d)", int(o))
	}
}

// EntryVault stores each user's entries as one encrypted blob keyed by the
// user id. Every write replaces the whole collection.
type EntryVault interface {
	// Save keeps only entries owned by userID and writes them under secret.
	Save(ctx context.Context, userID string, entries []models.DiaryEntry, secret string) error
	// Load returns the user's entries, or an empty list on any failure.
	Load(ctx context.Context, userID, secret string) []models.DiaryEntry
	// LoadWithOutcome is Load that also reports which case applied.
	LoadWithOutcome(ctx context.Context, userID, secret string) ([]models.DiaryEntry, LoadOutcome)
	Clear(ctx context.Context, userID string) error
	// Rekey re-encrypts the vault from oldSecret to newSecret. A vault that
	// cannot be decoded with oldSecret is deleted.
	Rekey(ctx context.Context, userID, oldSecret, newSecret string) error
	// Upsert replaces the entry with the same id or appends it, then saves.
	Upsert(ctx context.Context, userID, secret string, entry models.DiaryEntry) ([]models.DiaryEntry, error)
}

type entryVault struct {
	store    kv.Store
	log      logging.Logger
	maxBytes int64
	now      func() time.Time
}

// NewEntryVault returns a vault over store. maxBytes <= 0 disables the
// pre-flight size check.
func NewEntryVault(store kv.Store, log logging.Logger, maxBytes int64) EntryVault {
	return &entryVault{store: store, log: log, maxBytes: maxBytes, now: time.Now}
}

func (v *entryVault) Save(ctx context.Context, userID string, entries []models.DiaryEntry, secret string) error {
	owned := models.OwnedBy(entries, userID)

	plain, err := json.Marshal(owned)
	if err != nil {
		return fmt.Errorf("failed to serialize entries: %w", err)
	}

	var sb strings.Builder
	if err := cryptox.EncryptStream(&sb, bytes.NewReader(plain), secret); err != nil {
		return fmt.Errorf("failed to encrypt entries: %w", err)
	}

	key := common.EntriesKey(userID)
	size := int64(len(key) + sb.Len())
	if v.maxBytes > 0 && size > v.maxBytes {
		return &common.TooLargeError{UserID: userID, Size: size, Limit: v.maxBytes}
	}

	if err := v.store.Set(ctx, key, sb.String()); err != nil {
		v.log.Error(ctx, "vault write failed", "user_id", userID, "bytes", size, "error", err)
		return err
	}

	v.log.Debug(ctx, "vault saved", "user_id", userID, "entries", len(owned), "bytes", size)
	return nil
}

func (v *entryVault) Load(ctx context.Context, userID, secret string) []models.DiaryEntry {
	entries, _ := v.LoadWithOutcome(ctx, userID, secret)
	return entries
}

func (v *entryVault) LoadWithOutcome(ctx context.Context, userID, secret string) ([]models.DiaryEntry, LoadOutcome) {
	raw, ok, err := v.store.Get(ctx, common.EntriesKey(userID))
	if err != nil {
		v.log.Warn(ctx, "vault read failed", "user_id", userID, "error", err)
		return []models.DiaryEntry{}, OutcomeStoreError
	}
	if !ok {
		return []models.DiaryEntry{}, OutcomeEmpty
	}

	entries, err := decodeEntries(raw, secret)
	if err != nil {
		v.log.Warn(ctx, "failed to load entries", "user_id", userID, "error", err)
		return []models.DiaryEntry{}, OutcomeDecodeFailed
	}
	return entries, OutcomeLoaded
}

func (v *entryVault) Clear(ctx context.Context, userID string) error {
	if err := v.store.Delete(ctx, common.EntriesKey(userID)); err != nil {
		return fmt.Errorf("failed to clear entries of %s: %w", userID, err)
	}
	return nil
}

func (v *entryVault) Rekey(ctx context.Context, userID, oldSecret, newSecret string) error {
	key := common.EntriesKey(userID)

	raw, ok, err := v.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read entries of %s: %w", userID, err)
	}
	if !ok {
		v.log.Debug(ctx, "no entries to re-encrypt", "user_id", userID)
		return nil
	}

	entries, err := decodeEntries(raw, oldSecret)
	if err != nil {
		v.log.Warn(ctx, "could not decrypt with old passcode, entries are lost", "user_id", userID, "error", err)
		return v.Clear(ctx, userID)
	}

	if err := v.Save(ctx, userID, entries, newSecret); err != nil {
		return fmt.Errorf("failed to re-encrypt entries of %s: %w", userID, err)
	}

	v.log.Info(ctx, "entries re-encrypted", "user_id", userID, "entries", len(entries))
	return nil
}

func (v *entryVault) Upsert(ctx context.Context, userID, secret string, entry models.DiaryEntry) ([]models.DiaryEntry, error) {
	now := v.now().UTC()

	entry.UserID = userID
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date == "" {
		entry.Date = now.Format(models.DateLayout)
	}
	if entry.PageType == "" {
		entry.PageType = models.PageRuled
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	if err := models.Validate(entry); err != nil {
		return nil, err
	}

	entries, outcome := v.LoadWithOutcome(ctx, userID, secret)
	switch outcome {
	case OutcomeDecodeFailed:
		return nil, fmt.Errorf("refusing to overwrite unreadable vault: %w", common.ErrDecryptionFailed)
	case OutcomeStoreError:
		return nil, fmt.Errorf("failed to read entries of %s: %w", userID, common.ErrStoreUnavailable)
	}

	replaced := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entry.CreatedAt = entries[i].CreatedAt
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	if err := v.Save(ctx, userID, entries, secret); err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeEntries(raw, secret string) ([]models.DiaryEntry, error) {
	var buf bytes.Buffer
	if err := cryptox.DecryptStream(&buf, strings.NewReader(raw), secret); err != nil {
		return nil, err
	}

	var entries []models.DiaryEntry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse entries: %w", err)
	}
	if entries == nil {
		entries = []models.DiaryEntry{}
	}
	return entries, nil
}
