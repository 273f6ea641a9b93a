package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/cryptox"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/logging"
)

// BackupFilePrefix and BackupFileLayout form the suggested export file name.
const (
	BackupFilePrefix = "my-diary-backup-encrypted-"
	BackupFileLayout = "2006-01-02"
)

// BackupCodec builds, wraps and parses backup files.
type BackupCodec interface {
	// ExportUser builds a backup of one user. secret is embedded as the
	// user's secret code so the backup can be restored on another device.
	ExportUser(ctx context.Context, userID, secret string, entries []models.DiaryEntry) (*models.BackupData, error)
	// ExportRegistry builds a backup of every profile with secrets blanked
	// and no entries.
	ExportRegistry(ctx context.Context) (*models.BackupData, error)
	Wrap(backup *models.BackupData, password string) (*models.Envelope, error)
	Unwrap(env *models.Envelope, password string) (*models.BackupData, error)
	Validate(backup *models.BackupData) error
	Marshal(env *models.Envelope) ([]byte, error)
	// Parse accepts both password-protected envelopes and legacy plain
	// backups.
	Parse(raw []byte, password string) (*models.BackupData, error)
	FileName(now time.Time) string
}

type backupCodec struct {
	registry UserRegistry
	log      logging.Logger
	now      func() time.Time
}

func NewBackupCodec(registry UserRegistry, log logging.Logger) BackupCodec {
	return &backupCodec{registry: registry, log: log, now: time.Now}
}

func (c *backupCodec) ExportUser(ctx context.Context, userID, secret string, entries []models.DiaryEntry) (*models.BackupData, error) {
	u, ok := c.registry.Get(ctx, userID)
	if !ok {
		return nil, common.ErrUserNotFound
	}
	u.SecretCode = secret

	b := &models.BackupData{
		Version:    models.BackupVersion,
		ExportDate: c.now().UTC(),
		Users:      []models.User{*u},
		Entries:    models.OwnedBy(entries, userID),
	}

	c.log.Info(ctx, "user exported", "user_id", userID, "entries", len(b.Entries))
	return b, nil
}

func (c *backupCodec) ExportRegistry(ctx context.Context) (*models.BackupData, error) {
	users := c.registry.LoadUsers(ctx)
	for i := range users {
		users[i].SecretCode = ""
	}

	c.log.Info(ctx, "registry exported", "users", len(users))
	return &models.BackupData{
		Version:    models.BackupVersion,
		ExportDate: c.now().UTC(),
		Users:      users,
		Entries:    []models.DiaryEntry{},
	}, nil
}

func (c *backupCodec) Wrap(backup *models.BackupData, password string) (*models.Envelope, error) {
	if len(password) < models.MinSecretLength {
		return nil, common.ErrWeakPassword
	}

	plain, err := json.Marshal(backup)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize backup: %w", err)
	}

	data, err := cryptox.Encrypt(string(plain), password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt backup: %w", err)
	}

	return &models.Envelope{Version: models.BackupVersion, Encrypted: true, Data: data}, nil
}

func (c *backupCodec) Unwrap(env *models.Envelope, password string) (*models.BackupData, error) {
	if env == nil || !env.Encrypted || env.Data == "" {
		return nil, fmt.Errorf("%w: invalid encrypted backup format", common.ErrIncorrectPasswordOrCorrupt)
	}
	if password == "" {
		return nil, common.ErrPasswordRequired
	}

	plain, err := cryptox.Decrypt(env.Data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIncorrectPasswordOrCorrupt, err)
	}

	var b models.BackupData
	if err := json.Unmarshal([]byte(plain), &b); err != nil {
		return nil, common.ErrIncorrectPasswordOrCorrupt
	}
	if err := c.Validate(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIncorrectPasswordOrCorrupt, err)
	}
	return &b, nil
}

func (c *backupCodec) Validate(backup *models.BackupData) error {
	if backup == nil {
		return common.ErrInvalidFormat
	}
	if err := models.Validate(backup); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidFormat, err)
	}
	return nil
}

func (c *backupCodec) Marshal(env *models.Envelope) ([]byte, error) {
	return json.MarshalIndent(env, "", "  ")
}

// probe detects the envelope form without committing to either schema.
type probe struct {
	Encrypted bool   `json:"encrypted"`
	Data      string `json:"data"`
}

func (c *backupCodec) Parse(raw []byte, password string) (*models.BackupData, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: failed to parse backup file", common.ErrInvalidFormat)
	}

	if p.Encrypted && p.Data != "" {
		if password == "" {
			return nil, common.ErrPasswordRequired
		}
		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, common.ErrIncorrectPasswordOrCorrupt
		}
		return c.Unwrap(&env, password)
	}

	var b models.BackupData
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	if err := c.Validate(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *backupCodec) FileName(now time.Time) string {
	return BackupFilePrefix + now.UTC().Format(BackupFileLayout) + ".json"
}
