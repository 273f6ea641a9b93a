package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/filex"
)

// exportPath resolves the target file: empty or a directory means the
// default backup name inside it.
func (a *App) exportPath(args []string) string {
	name := a.Codec.FileName(a.now())
	if len(args) == 0 {
		return name
	}
	if st, err := os.Stat(args[0]); err == nil && st.IsDir() {
		return filepath.Join(args[0], name)
	}
	return args[0]
}

func (a *App) writeBackup(ctx context.Context, backup *models.BackupData, path string) error {
	password, err := a.getNewSecret("Backup password (min. 4 characters)")
	if err != nil {
		return err
	}

	env, err := a.Codec.Wrap(backup, password)
	if err != nil {
		return err
	}
	data, err := a.Codec.Marshal(env)
	if err != nil {
		return err
	}

	if _, err := filex.EnsureParentDir(path); err != nil {
		return fmt.Errorf("error creating dir: %w", err)
	}
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("error writing backup: %w", err)
	}

	a.log.Info(ctx, "backup written", "path", path, "bytes", len(data))
	fmt.Fprintln(a.out, okColor.Sprintf("Backup saved to %s (%d users, %d entries).", path, len(backup.Users), len(backup.Entries)))
	return nil
}

func (a *App) Export(ctx context.Context, args []string) error {
	entries, err := a.loadEntries(ctx)
	if err != nil {
		return err
	}

	backup, err := a.Codec.ExportUser(ctx, a.user.ID, a.secret, entries)
	if err != nil {
		return err
	}
	return a.writeBackup(ctx, backup, a.exportPath(args))
}

func (a *App) ExportAll(ctx context.Context, args []string) error {
	backup, err := a.Codec.ExportRegistry(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, warnColor.Sprint("Secret codes and entries are not included; imported profiles will need a passcode reset."))
	return a.writeBackup(ctx, backup, a.exportPath(args))
}

func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("import <file> [merge|replace]")
	}

	mode := models.ImportMerge
	if len(args) > 1 {
		m, ok := models.ParseImportMode(args[1])
		if !ok {
			return usageError("import <file> [merge|replace]")
		}
		mode = m
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("error reading backup: %w", err)
	}

	backup, err := a.Codec.Parse(raw, "")
	if errors.Is(err, common.ErrPasswordRequired) {
		password, perr := a.getSecret("Backup password")
		if perr != nil {
			return perr
		}
		backup, err = a.Codec.Parse(raw, password)
	}
	if err != nil {
		return err
	}

	if mode == models.ImportReplace {
		ok, err := a.confirm("Replace all profiles and entries on this device?")
		if err != nil || !ok {
			return err
		}
	}

	res, err := a.Merge.Import(ctx, backup, mode)
	if res != nil && res.Success {
		fmt.Fprintln(a.out, okColor.Sprint(res.Message))
	} else if res != nil && (res.ImportedUsers > 0 || res.ImportedEntries > 0) {
		fmt.Fprintln(a.out, warnColor.Sprintf("Partially imported: %d users, %d entries.", res.ImportedUsers, res.ImportedEntries))
	}

	a.refreshSession(ctx)
	return err
}

// refreshSession drops the session when the logged-in profile was removed
// or re-keyed by an import.
func (a *App) refreshSession(ctx context.Context) {
	if a.user == nil {
		return
	}
	u, ok := a.Registry.Get(ctx, a.user.ID)
	if !ok || u.SecretCode != a.secret {
		a.logoutSilently()
		fmt.Fprintln(a.out, warnColor.Sprint("Your profile changed during import. Please log in again."))
		return
	}
	a.user = u
}

func (a *App) Usage(ctx context.Context) error {
	used, err := a.Store.Usage(ctx)
	if err != nil {
		return err
	}
	vaults, err := a.Store.Keys(ctx, common.EntriesKeyPrefix)
	if err != nil {
		return err
	}

	if a.Quota > 0 {
		pct := float64(used) * 100 / float64(a.Quota)
		line := fmt.Sprintf("Storage: about %d of %d bytes used (%.1f%%)", used, a.Quota, pct)
		if pct >= 80 {
			line = warnColor.Sprint(line)
		}
		fmt.Fprintln(a.out, line)
	} else {
		fmt.Fprintf(a.out, "Storage: about %d bytes used (no quota)\n", used)
	}
	fmt.Fprintf(a.out, "%d profiles, %d diaries\n", len(a.Registry.LoadUsers(ctx)), len(vaults))
	return nil
}
