package cli

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/config"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/repositories/kv"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/services"
	"github.com/dmitrijs2005/diarykeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestMain(m *testing.M) {
	isTerminal = func(int) bool { return false }
	os.Exit(m.Run())
}

func newTestApp(t *testing.T, lines ...string) (*App, *bytes.Buffer) {
	t.Helper()
	return newTestAppWithStore(t, kv.NewMemoryStore(0), lines...)
}

func newTestAppWithStore(t *testing.T, store kv.Store, lines ...string) (*App, *bytes.Buffer) {
	t.Helper()
	log := logging.Discard()
	vault := services.NewEntryVault(store, log, 0)
	registry := services.NewUserRegistry(store, vault, log)
	codec := services.NewBackupCodec(registry, log)

	var out bytes.Buffer
	a := newApp(Deps{
		Store:    store,
		Registry: registry,
		Vault:    vault,
		Codec:    codec,
		Merge:    services.NewMergeEngine(registry, vault, codec, log),
		Quota:    1000,
	}, log, strings.NewReader(""), &out)
	a.now = func() time.Time { return fixedNow }
	feed(a, lines...)
	return a, &out
}

// feed replaces the pending input with lines.
func feed(a *App, lines ...string) {
	a.reader = bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func createAlice(t *testing.T, a *App) {
	t.Helper()
	feed(a, "Alice", "", "1234", "1234", "First pet?", "Rex")
	require.NoError(t, a.Create(context.Background()))
}

func writeEntry(t *testing.T, a *App, text string) models.DiaryEntry {
	t.Helper()
	feed(a, "", text, "")
	require.NoError(t, a.Write(context.Background(), nil))
	entries := a.Vault.Load(context.Background(), a.user.ID, a.secret)
	return entries[len(entries)-1]
}

func TestApp_CreateLoginLogout(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	createAlice(t, a)
	assert.True(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Profile created")
	assert.Equal(t, "(Alice)", a.status())

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn())
	require.ErrorIs(t, a.Logout(ctx), errNotLoggedIn)

	feed(a, "9999")
	require.ErrorIs(t, a.Login(ctx, []string{"alice"}), common.ErrInvalidSecret)
	assert.False(t, a.isLoggedIn())

	feed(a, "1234")
	require.NoError(t, a.Login(ctx, []string{"ALICE"}))
	assert.True(t, a.isLoggedIn())

	require.ErrorIs(t, a.Login(ctx, []string{"Bob"}), common.ErrUserNotFound)

	var ue usageError
	require.ErrorAs(t, a.Login(ctx, nil), &ue)
}

func TestApp_Create_SecretMismatch(t *testing.T) {
	a, _ := newTestApp(t, "Alice", "", "1234", "4321")
	require.ErrorIs(t, a.Create(context.Background()), errMismatch)
	assert.Empty(t, a.Registry.LoadUsers(context.Background()))
}

func TestApp_Profiles(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	require.NoError(t, a.Profiles(ctx))
	assert.Contains(t, out.String(), "No profiles yet")

	createAlice(t, a)
	require.NoError(t, a.Registry.SaveUsers(ctx, append(a.Registry.LoadUsers(ctx),
		models.User{ID: "p1", Name: "Imported", SecretCode: models.PlaceholderSecret})))

	out.Reset()
	require.NoError(t, a.Profiles(ctx))
	assert.Contains(t, out.String(), "Alice")
	assert.Contains(t, out.String(), "Imported")
	assert.Contains(t, out.String(), "needs passcode reset")

	require.ErrorIs(t, a.Login(ctx, []string{"Imported"}), common.ErrPasscodeResetRequired)
}

func TestApp_EntriesRequireLogin(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t)

	require.ErrorIs(t, a.List(ctx, nil), errNotLoggedIn)
	require.ErrorIs(t, a.Write(ctx, nil), errNotLoggedIn)
	require.ErrorIs(t, a.Show(ctx, []string{"x"}), errNotLoggedIn)
	require.ErrorIs(t, a.Export(ctx, nil), errNotLoggedIn)
	require.ErrorIs(t, a.DeleteProfile(ctx), errNotLoggedIn)
}

func TestApp_WriteListShowEdit(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)
	createAlice(t, a)

	e := writeEntry(t, a, "Hello diary")
	assert.Equal(t, "2024-03-15", e.Date)
	assert.Equal(t, models.PageRuled, e.PageType)

	feed(a, "2024-02-01", "Older page", "")
	require.NoError(t, a.Write(ctx, []string{"plain"}))

	var ue usageError
	require.ErrorAs(t, a.Write(ctx, []string{"dotted"}), &ue)

	out.Reset()
	require.NoError(t, a.List(ctx, nil))
	listing := out.String()
	assert.Contains(t, listing, "Hello diary")
	assert.Contains(t, listing, "Older page")
	assert.Less(t, strings.Index(listing, "Hello diary"), strings.Index(listing, "Older page"), "newest first")
	assert.Contains(t, listing, "2 entries in total, 1 this month")

	out.Reset()
	require.NoError(t, a.List(ctx, []string{"2024-02"}))
	assert.NotContains(t, out.String(), "Hello diary")
	assert.Contains(t, out.String(), "Older page")

	out.Reset()
	require.NoError(t, a.Show(ctx, []string{e.ID}))
	assert.Contains(t, out.String(), "Hello diary")
	assert.Contains(t, out.String(), "11 characters, 2 words")

	feed(a, "Hello again", "")
	require.NoError(t, a.Edit(ctx, []string{e.ID[:8]}))
	got := a.Vault.Load(ctx, a.user.ID, a.secret)
	require.Len(t, got, 2)
	assert.Equal(t, "Hello again", got[0].Content)

	feed(a, "")
	require.NoError(t, a.Edit(ctx, []string{e.ID}))
	assert.Contains(t, out.String(), "Nothing changed.")

	require.Error(t, a.Show(ctx, []string{"missing"}))
}

func TestApp_Attach(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)
	createAlice(t, a)
	e := writeEntry(t, a, "with a picture")

	dir := t.TempDir()
	img := filepath.Join(dir, "pixel.png")
	require.NoError(t, os.WriteFile(img, pngPixel, 0o600))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain text"), 0o600))

	require.NoError(t, a.Attach(ctx, []string{e.ID, img}))
	require.ErrorIs(t, a.Attach(ctx, []string{e.ID, txt}), models.ErrNotImage)

	got := a.Vault.Load(ctx, a.user.ID, a.secret)
	require.Len(t, got[0].Images, 1)

	out.Reset()
	require.NoError(t, a.Show(ctx, []string{e.ID}))
	assert.Contains(t, out.String(), "image 1: image/png")
}

func TestApp_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src, _ := newTestApp(t)
	createAlice(t, src)
	writeEntry(t, src, "carried over")

	feed(src, "pass", "pass")
	require.NoError(t, src.Export(ctx, []string{dir}))
	path := filepath.Join(dir, "my-diary-backup-encrypted-2024-03-15.json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"encrypted": true`)
	assert.NotContains(t, string(raw), "carried over")

	dst, out := newTestApp(t, "wrong")
	require.ErrorIs(t, dst.Import(ctx, []string{path}), common.ErrIncorrectPasswordOrCorrupt)

	feed(dst, "pass", "y")
	require.NoError(t, dst.Import(ctx, []string{path, "replace"}))
	assert.Contains(t, out.String(), "Imported 1 users and 1 entries")

	feed(dst, "1234")
	require.NoError(t, dst.Login(ctx, []string{"Alice"}))
	got := dst.Vault.Load(ctx, dst.user.ID, dst.secret)
	require.Len(t, got, 1)
	assert.Equal(t, "carried over", got[0].Content)
}

func TestApp_Import_ReplaceNeedsConsent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, _ := newTestApp(t)
	createAlice(t, a)
	feed(a, "pass", "pass")
	path := filepath.Join(dir, "b.json")
	require.NoError(t, a.ExportAll(ctx, []string{path}))

	feed(a, "pass", "n")
	require.NoError(t, a.Import(ctx, []string{path, "replace"}))
	assert.True(t, a.isLoggedIn(), "declined replace leaves the session alone")

	var ue usageError
	require.ErrorAs(t, a.Import(ctx, []string{path, "overwrite"}), &ue)
	require.Error(t, a.Import(ctx, []string{filepath.Join(dir, "missing.json")}))
}

func TestApp_Import_LogsOutRekeyedSession(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, out := newTestApp(t)
	createAlice(t, a)

	backup, err := a.Codec.ExportUser(ctx, a.user.ID, "5678", nil)
	require.NoError(t, err)
	env, err := a.Codec.Wrap(backup, "pass")
	require.NoError(t, err)
	raw, err := a.Codec.Marshal(env)
	require.NoError(t, err)
	path := filepath.Join(dir, "rekey.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	feed(a, "pass")
	require.NoError(t, a.Import(ctx, []string{path, "merge"}))
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Please log in again")
}

func TestApp_Forgot(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)
	createAlice(t, a)
	writeEntry(t, a, "keep me")
	id := a.user.ID

	feed(a, "nobody", "alice", "max", "rex", "5678", "8765", "5678", "5678")
	require.NoError(t, a.Forgot(ctx))

	text := out.String()
	assert.Contains(t, text, "No profile found")
	assert.Contains(t, text, "First pet?")
	assert.Contains(t, text, "Incorrect answer")
	assert.Contains(t, text, "do not match")
	assert.Contains(t, text, "passcode has been reset")
	assert.False(t, a.isLoggedIn())

	_, err := a.Registry.Authenticate(ctx, id, "5678")
	require.NoError(t, err)
	assert.Len(t, a.Vault.Load(ctx, id, "5678"), 1)
}

func TestApp_DeleteProfile(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t)
	createAlice(t, a)
	writeEntry(t, a, "bye")
	id := a.user.ID

	feed(a, "no")
	require.NoError(t, a.DeleteProfile(ctx))
	assert.True(t, a.isLoggedIn())

	feed(a, "yes")
	require.NoError(t, a.DeleteProfile(ctx))
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, a.Registry.LoadUsers(ctx))

	_, ok, err := a.Store.Get(ctx, common.EntriesKey(id))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApp_Usage(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)
	createAlice(t, a)
	writeEntry(t, a, "x")

	require.NoError(t, a.Usage(ctx))
	assert.Contains(t, out.String(), "of 1000 bytes used")
	assert.Contains(t, out.String(), "1 profiles, 1 diaries")
}

func TestApp_QuotaErrorIsRendered(t *testing.T) {
	a, _ := newTestAppWithStore(t, kv.NewMemoryStore(700))
	createAlice(t, a)

	feed(a, "", strings.Repeat("long text ", 80), "")
	err := a.Write(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Contains(t, renderError(err), "Storage is full")
}

func TestNewApp_OpensConfiguredStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "nested", "diary.db")

	a, err := NewApp(ctx, cfg, logging.Discard(), strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, a.Store.Set(ctx, "k", "v"))
	require.NoError(t, a.Close())

	_, err = os.Stat(cfg.DatabasePath)
	require.NoError(t, err)

	cfg.InMemory = true
	a, err = NewApp(ctx, cfg, logging.Discard(), strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	_, ok := a.Store.(*kv.MemoryStore)
	assert.True(t, ok)
	require.NoError(t, a.Close())
}

func TestUserMessage(t *testing.T) {
	qe := &common.QuotaError{Key: "k", Required: 10, Usage: 900, Quota: 1000}
	assert.Contains(t, userMessage(qe), "900 of 1000 bytes")

	tl := &common.TooLargeError{UserID: "u", Size: 5, Limit: 4}
	assert.Contains(t, userMessage(tl), "too large")

	assert.Equal(t, "Usage: show <id>", userMessage(usageError("show <id>")))
	assert.Equal(t, "Please log in first.", userMessage(errNotLoggedIn))
}
