package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/logging"
)

// MergeEngine applies a validated backup to the device.
type MergeEngine interface {
	// Import applies backup in the given mode. On a vault write failure the
	// import stops and the partial result is returned with the error.
	Import(ctx context.Context, backup *models.BackupData, mode models.ImportMode) (*models.ImportResult, error)
}

type mergeEngine struct {
	registry UserRegistry
	vault    EntryVault
	codec    BackupCodec
	log      logging.Logger
}

func NewMergeEngine(registry UserRegistry, vault EntryVault, codec BackupCodec, log logging.Logger) MergeEngine {
	return &mergeEngine{registry: registry, vault: vault, codec: codec, log: log}
}

func (m *mergeEngine) Import(ctx context.Context, backup *models.BackupData, mode models.ImportMode) (*models.ImportResult, error) {
	if err := m.codec.Validate(backup); err != nil {
		return failed(err), err
	}

	var (
		res *models.ImportResult
		err error
	)
	switch mode {
	case models.ImportReplace:
		res, err = m.replace(ctx, backup)
	case models.ImportMerge:
		res, err = m.merge(ctx, backup)
	default:
		err = fmt.Errorf("%w: unknown import mode %q", common.ErrValidation, mode)
		return failed(err), err
	}

	log := m.log.With("mode", string(mode))
	if err != nil {
		log.Error(ctx, "import failed", "users", res.ImportedUsers, "entries", res.ImportedEntries, "error", err)
		res.Success = false
		res.Message = err.Error()
		return res, err
	}

	res.Success = true
	res.Message = fmt.Sprintf("Imported %d users and %d entries", res.ImportedUsers, res.ImportedEntries)
	log.Info(ctx, "import finished", "users", res.ImportedUsers, "entries", res.ImportedEntries)
	return res, nil
}

func (m *mergeEngine) replace(ctx context.Context, backup *models.BackupData) (*models.ImportResult, error) {
	res := &models.ImportResult{}

	users := uniqueUsers(backup.Users)
	inBackup := make(map[string]struct{}, len(users))
	for i := range users {
		inBackup[users[i].ID] = struct{}{}
		if users[i].NeedsPasscodeReset() {
			users[i].SecretCode = models.PlaceholderSecret
		}
	}

	onDevice := m.registry.LoadUsers(ctx)

	if err := m.registry.SaveUsers(ctx, users); err != nil {
		return res, fmt.Errorf("failed to save users: %w", err)
	}
	res.ImportedUsers = len(users)

	for _, u := range onDevice {
		if _, ok := inBackup[u.ID]; ok {
			continue
		}
		if err := m.vault.Clear(ctx, u.ID); err != nil {
			m.log.Warn(ctx, "failed to clear replaced vault", "user_id", u.ID, "error", err)
		}
	}

	for _, u := range users {
		if u.NeedsPasscodeReset() {
			// no key to encrypt with; these entries are dropped
			continue
		}
		owned := uniqueEntries(models.OwnedBy(backup.Entries, u.ID))
		if err := m.vault.Save(ctx, u.ID, owned, u.SecretCode); err != nil {
			return res, fmt.Errorf("failed to save entries of %s: %w", u.ID, err)
		}
		res.ImportedEntries += len(owned)
	}

	return res, nil
}

func (m *mergeEngine) merge(ctx context.Context, backup *models.BackupData) (*models.ImportResult, error) {
	res := &models.ImportResult{}

	merged := m.registry.LoadUsers(ctx)
	index := make(map[string]int, len(merged))
	onDeviceSecret := make(map[string]string, len(merged))
	for i, u := range merged {
		index[u.ID] = i
		onDeviceSecret[u.ID] = u.SecretCode
	}

	users := uniqueUsers(backup.Users)
	for _, bu := range users {
		i, exists := index[bu.ID]
		switch {
		case exists && !bu.NeedsPasscodeReset():
			merged[i].Name = bu.Name
			merged[i].Avatar = bu.Avatar
			merged[i].SecurityQuestion = bu.SecurityQuestion
			merged[i].SecurityAnswer = bu.SecurityAnswer
			merged[i].SecretCode = bu.SecretCode
			res.ImportedUsers++
		case exists:
			// nothing to apply without a secret; keep the on-device record
		default:
			if bu.NeedsPasscodeReset() {
				bu.SecretCode = models.PlaceholderSecret
			}
			index[bu.ID] = len(merged)
			merged = append(merged, bu)
			res.ImportedUsers++
		}
	}

	if err := m.registry.SaveUsers(ctx, merged); err != nil {
		return res, fmt.Errorf("failed to save users: %w", err)
	}

	for _, bu := range users {
		resolved := bu.SecretCode
		if bu.NeedsPasscodeReset() {
			resolved = onDeviceSecret[bu.ID]
		}
		if resolved == "" || resolved == models.PlaceholderSecret {
			continue
		}

		added, err := m.mergeEntries(ctx, bu.ID, onDeviceSecret[bu.ID], resolved, backup.Entries)
		res.ImportedEntries += added
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// mergeEntries appends backup entries with unseen ids to the user's vault
// and writes the union under newSecret. The existing vault is read with the
// secret it is currently keyed by.
func (m *mergeEngine) mergeEntries(ctx context.Context, userID, currentSecret, newSecret string, backupEntries []models.DiaryEntry) (int, error) {
	loadSecret := currentSecret
	if loadSecret == "" || loadSecret == models.PlaceholderSecret {
		loadSecret = newSecret
	}

	existing, outcome := m.vault.LoadWithOutcome(ctx, userID, loadSecret)
	if outcome == OutcomeDecodeFailed && loadSecret != newSecret {
		existing, outcome = m.vault.LoadWithOutcome(ctx, userID, newSecret)
	}
	if outcome == OutcomeStoreError {
		return 0, fmt.Errorf("failed to read entries of %s: %w", userID, common.ErrStoreUnavailable)
	}
	if outcome == OutcomeDecodeFailed {
		m.log.Warn(ctx, "existing entries unreadable, merging into empty diary", "user_id", userID)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e.ID] = struct{}{}
	}

	added := 0
	for _, e := range models.OwnedBy(backupEntries, userID) {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		existing = append(existing, e)
		added++
	}

	if added == 0 && loadSecret == newSecret && outcome != OutcomeDecodeFailed {
		return 0, nil
	}

	if err := m.vault.Save(ctx, userID, existing, newSecret); err != nil {
		return 0, fmt.Errorf("failed to save entries of %s: %w", userID, err)
	}
	return added, nil
}

func failed(err error) *models.ImportResult {
	return &models.ImportResult{Success: false, Message: err.Error()}
}

// uniqueUsers drops repeated ids, keeping the first occurrence.
func uniqueUsers(in []models.User) []models.User {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.User, 0, len(in))
	for _, u := range in {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

// uniqueEntries drops repeated ids, keeping the first occurrence.
func uniqueEntries(in []models.DiaryEntry) []models.DiaryEntry {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.DiaryEntry, 0, len(in))
	for _, e := range in {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
