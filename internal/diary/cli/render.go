package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

// usageError reports a command invoked with the wrong arguments.
type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

// userMessage maps an error to the text shown to the user.
func userMessage(err error) string {
	var (
		qe *common.QuotaError
		tl *common.TooLargeError
		ue usageError
	)

	switch {
	case errors.As(err, &ue):
		return "Usage: " + string(ue)
	case errors.As(err, &qe):
		return fmt.Sprintf("Storage is full: about %d of %d bytes in use. Export a backup and remove some images.", qe.Usage, qe.Quota)
	case errors.As(err, &tl):
		return fmt.Sprintf("This diary is too large to save (%d bytes, limit %d). Remove some images.", tl.Size, tl.Limit)
	case errors.Is(err, common.ErrIncorrectPasswordOrCorrupt):
		return "Failed to decrypt backup. Incorrect password or corrupted file."
	case errors.Is(err, common.ErrPasswordRequired):
		return "Please enter the backup password."
	case errors.Is(err, common.ErrInvalidFormat):
		return "Invalid backup file format."
	case errors.Is(err, common.ErrWeakPassword):
		return "Password must be at least 4 characters long."
	case errors.Is(err, common.ErrInvalidSecret):
		return "Incorrect secret code."
	case errors.Is(err, common.ErrPasscodeResetRequired):
		return "This profile has no secret code yet. Use 'forgot' to set one."
	case errors.Is(err, common.ErrSecurityAnswerMismatch):
		return "Incorrect answer to security question."
	case errors.Is(err, common.ErrUserNotFound):
		return "No profile found."
	case errors.Is(err, common.ErrDecryptionFailed):
		return "Your diary could not be decrypted with this secret code."
	case errors.Is(err, errNotLoggedIn):
		return "Please log in first."
	case errors.Is(err, errMismatch):
		return "The two entries do not match."
	case errors.Is(err, models.ErrNotImage):
		return "Only image files can be attached."
	default:
		return err.Error()
	}
}

func renderError(err error) string {
	return errColor.Sprint("Error: " + userMessage(err))
}
