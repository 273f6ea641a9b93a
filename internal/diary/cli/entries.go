package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/services"
)

const previewLen = 60

// loadEntries reads the logged-in user's vault, refusing to continue when
// it exists but cannot be decoded with the session secret.
func (a *App) loadEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	entries, outcome := a.Vault.LoadWithOutcome(ctx, a.user.ID, a.secret)
	switch outcome {
	case services.OutcomeDecodeFailed:
		return nil, common.ErrDecryptionFailed
	case services.OutcomeStoreError:
		return nil, common.ErrStoreUnavailable
	}
	return entries, nil
}

func findEntry(entries []models.DiaryEntry, id string) (models.DiaryEntry, bool) {
	for _, e := range entries {
		if e.ID == id || (len(id) >= 8 && strings.HasPrefix(e.ID, id)) {
			return e, true
		}
	}
	return models.DiaryEntry{}, false
}

// newestFirst orders entries by date, then by creation time, newest first.
func newestFirst(entries []models.DiaryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func preview(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	if utf8.RuneCountInString(line) <= previewLen {
		return line
	}
	return string([]rune(line)[:previewLen]) + "..."
}

func (a *App) List(ctx context.Context, args []string) error {
	entries, err := a.loadEntries(ctx)
	if err != nil {
		return err
	}

	total := len(entries)
	month := a.now().Format("2006-01")
	thisMonth := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Date, month) {
			thisMonth++
		}
	}

	if len(args) > 0 {
		filtered := make([]models.DiaryEntry, 0, len(entries))
		for _, e := range entries {
			if strings.HasPrefix(e.Date, args[0]) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	newestFirst(entries)

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries. Use 'write' to start a page.")
	}
	for _, e := range entries {
		img := ""
		if n := len(e.Images); n > 0 {
			img = dimColor.Sprintf(" [%d image(s)]", n)
		}
		fmt.Fprintf(a.out, "%s  %s  %-5s  %s%s\n", dimColor.Sprint(e.ID[:min(8, len(e.ID))]), e.Date, e.PageType, preview(e.Content), img)
	}
	fmt.Fprintf(a.out, "%d entries in total, %d this month\n", total, thisMonth)
	return nil
}

func (a *App) Write(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	page := models.PageRuled
	if len(args) > 0 {
		page = models.PageType(args[0])
		if page != models.PageRuled && page != models.PagePlain {
			return usageError("write [ruled|plain]")
		}
	}

	today := a.now().Format(models.DateLayout)
	date, err := GetSimpleText(a.reader, fmt.Sprintf("Date (YYYY-MM-DD, empty for %s)", today), a.out)
	if err != nil {
		return err
	}
	if date == "" {
		date = today
	}

	content, err := GetMultiline(a.reader, "Dear diary...", a.out)
	if err != nil {
		return err
	}

	entries, err := a.Vault.Upsert(ctx, a.user.ID, a.secret, models.DiaryEntry{
		Date:     date,
		Content:  content,
		PageType: page,
	})
	if err != nil {
		return err
	}

	saved := entries[len(entries)-1]
	fmt.Fprintln(a.out, okColor.Sprintf("Entry saved (%s).", saved.ID))
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("edit <id>")
	}
	entries, err := a.loadEntries(ctx)
	if err != nil {
		return err
	}
	e, ok := findEntry(entries, args[0])
	if !ok {
		return fmt.Errorf("entry %s not found", args[0])
	}

	fmt.Fprintln(a.out, dimColor.Sprint(e.Content))
	content, err := GetMultiline(a.reader, "New text (empty keeps the current text)", a.out)
	if err != nil {
		return err
	}
	if content == "" {
		fmt.Fprintln(a.out, "Nothing changed.")
		return nil
	}

	e.Content = content
	if _, err := a.Vault.Upsert(ctx, a.user.ID, a.secret, e); err != nil {
		return err
	}
	fmt.Fprintln(a.out, okColor.Sprint("Entry updated."))
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("show <id>")
	}
	entries, err := a.loadEntries(ctx)
	if err != nil {
		return err
	}
	e, ok := findEntry(entries, args[0])
	if !ok {
		return fmt.Errorf("entry %s not found", args[0])
	}

	fmt.Fprintf(a.out, "%s (%s page)\n", e.Date, e.PageType)
	fmt.Fprintln(a.out, e.Content)
	fmt.Fprintln(a.out, dimColor.Sprintf("%d characters, %d words, last edited %s",
		utf8.RuneCountInString(e.Content), len(strings.Fields(e.Content)), e.UpdatedAt.Local().Format("2006-01-02 15:04")))

	for i, img := range e.Images {
		mime, data, err := models.ParseImageDataURL(img)
		if err != nil {
			fmt.Fprintln(a.out, warnColor.Sprintf("image %d: unreadable", i+1))
			continue
		}
		fmt.Fprintf(a.out, "image %d: %s, %d bytes\n", i+1, mime, len(data))
	}
	return nil
}

func (a *App) Attach(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("attach <id> <image>")
	}
	entries, err := a.loadEntries(ctx)
	if err != nil {
		return err
	}
	e, ok := findEntry(entries, args[0])
	if !ok {
		return fmt.Errorf("entry %s not found", args[0])
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("error reading image: %w", err)
	}
	url, err := models.ImageDataURL(data)
	if err != nil {
		return err
	}

	e.Images = append(e.Images, url)
	if _, err := a.Vault.Upsert(ctx, a.user.ID, a.secret, e); err != nil {
		return err
	}
	fmt.Fprintln(a.out, okColor.Sprintf("Image attached (%d bytes).", len(data)))
	return nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
