package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/diarykeeper/internal/diary/config"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/repositories/kv"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/services"
	"github.com/dmitrijs2005/diarykeeper/internal/filex"
	"github.com/dmitrijs2005/diarykeeper/internal/logging"
)

// Deps are the services the App drives.
type Deps struct {
	Store    kv.Store
	Registry services.UserRegistry
	Vault    services.EntryVault
	Codec    services.BackupCodec
	Merge    services.MergeEngine
	Quota    int64
}

// App holds the session state of one interactive run.
type App struct {
	Deps

	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
	closer io.Closer

	user   *models.User
	secret string
}

// NewApp opens the store described by cfg and wires the services over it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	var (
		store  kv.Store
		closer io.Closer
	)

	if cfg.InMemory {
		store = kv.NewMemoryStore(cfg.StoreQuotaBytes)
		log.Warn(ctx, "using in-memory store, nothing will be persisted")
	} else {
		if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
			return nil, fmt.Errorf("error creating data dir: %w", err)
		}
		s, err := kv.Open(ctx, cfg.DatabasePath, cfg.StoreQuotaBytes)
		if err != nil {
			log.Error(ctx, "error initializing store", "path", cfg.DatabasePath, "error", err)
			return nil, err
		}
		store, closer = s, s
	}

	vault := services.NewEntryVault(store, log, cfg.MaxVaultBytes)
	registry := services.NewUserRegistry(store, vault, log)
	codec := services.NewBackupCodec(registry, log)

	a := newApp(Deps{
		Store:    store,
		Registry: registry,
		Vault:    vault,
		Codec:    codec,
		Merge:    services.NewMergeEngine(registry, vault, codec, log),
		Quota:    cfg.StoreQuotaBytes,
	}, log, in, out)
	a.closer = closer
	return a, nil
}

func newApp(d Deps, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		Deps:   d,
		log:    log,
		reader: bufio.NewReader(in),
		out:    out,
		now:    time.Now,
	}
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to My Diary (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

// Close releases the store.
func (a *App) Close() error {
	a.logoutSilently()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) status() string {
	if a.user == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.user.Name)
}

var errNotLoggedIn = errors.New("not logged in")

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func (a *App) logoutSilently() {
	a.user = nil
	a.secret = ""
}
