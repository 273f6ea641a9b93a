package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/models"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/services"
)

func (a *App) Profiles(ctx context.Context) error {
	users := a.Registry.LoadUsers(ctx)
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No profiles yet. Use 'create' to add one.")
		return nil
	}

	for _, u := range users {
		line := fmt.Sprintf("%s  %s", u.Name, dimColor.Sprint(u.ID))
		if u.NeedsPasscodeReset() {
			line += " " + warnColor.Sprint("(needs passcode reset)")
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *App) Create(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Your name", a.out)
	if err != nil {
		return err
	}
	avatar, err := GetSimpleText(a.reader, "Avatar (an emoji, optional)", a.out)
	if err != nil {
		return err
	}
	secret, err := a.getNewSecret("Secret code (min. 4 characters)")
	if err != nil {
		return err
	}
	question, err := GetSimpleText(a.reader, "Security question", a.out)
	if err != nil {
		return err
	}
	answer, err := GetSimpleText(a.reader, "Security answer", a.out)
	if err != nil {
		return err
	}

	u, err := a.Registry.CreateUser(ctx, models.NewUser{
		Name:             name,
		SecretCode:       secret,
		Avatar:           avatar,
		SecurityQuestion: question,
		SecurityAnswer:   answer,
	})
	if err != nil {
		return err
	}

	a.user, a.secret = u, secret
	fmt.Fprintln(a.out, okColor.Sprintf("Profile created. Welcome, %s!", u.Name))
	return nil
}

// lookupProfile resolves a profile by id, then by name.
func (a *App) lookupProfile(ctx context.Context, ref string) (*models.User, error) {
	if u, ok := a.Registry.Get(ctx, ref); ok {
		return u, nil
	}
	if u, ok := a.Registry.FindByName(ctx, ref); ok {
		return u, nil
	}
	return nil, common.ErrUserNotFound
}

func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("login <name>")
	}

	u, err := a.lookupProfile(ctx, joinArgs(args))
	if err != nil {
		return err
	}
	if u.NeedsPasscodeReset() {
		return common.ErrPasscodeResetRequired
	}

	secret, err := a.getSecret("Secret code")
	if err != nil {
		return err
	}

	authed, err := a.Registry.Authenticate(ctx, u.ID, secret)
	if err != nil {
		a.log.Warn(ctx, "login failed", "user_id", u.ID, "error", err)
		return err
	}

	a.user, a.secret = authed, secret
	fmt.Fprintln(a.out, okColor.Sprintf("Welcome back, %s!", authed.Name))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.logoutSilently()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Forgot runs the passcode reset flow interactively. Each step may be
// retried until it succeeds; an empty answer aborts.
func (a *App) Forgot(ctx context.Context) error {
	flow := services.NewResetFlow(a.Registry)

	for flow.Step() == services.StepAwaitingName {
		name, err := GetSimpleText(a.reader, "Profile name", a.out)
		if err != nil || name == "" {
			return err
		}
		q, err := flow.SubmitName(ctx, name)
		if err != nil {
			fmt.Fprintln(a.out, renderError(err))
			continue
		}
		fmt.Fprintln(a.out, "Security question:", q)
	}

	for flow.Step() == services.StepAwaitingAnswer {
		answer, err := GetSimpleText(a.reader, "Answer", a.out)
		if err != nil || answer == "" {
			return err
		}
		if err := flow.SubmitAnswer(ctx, answer); err != nil {
			fmt.Fprintln(a.out, renderError(err))
		}
	}

	for flow.Step() == services.StepAwaitingNewSecret {
		secret, err := a.getNewSecret("New secret code (min. 4 characters)")
		if errors.Is(err, errMismatch) {
			fmt.Fprintln(a.out, renderError(err))
			continue
		}
		if err != nil || secret == "" {
			return err
		}
		if err := flow.SubmitNewSecret(ctx, secret); err != nil {
			if flow.Step() == services.StepDone {
				return err
			}
			fmt.Fprintln(a.out, renderError(err))
		}
	}

	if a.user != nil && a.user.ID == flow.User().ID {
		a.logoutSilently()
	}
	fmt.Fprintln(a.out, okColor.Sprint("Your passcode has been reset. You can log in with the new secret code."))
	return nil
}

func (a *App) DeleteProfile(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ok, err := a.confirm(fmt.Sprintf("Delete profile %q and all of its entries?", a.user.Name))
	if err != nil || !ok {
		return err
	}

	if err := a.Registry.DeleteUser(ctx, a.user.ID); err != nil {
		return err
	}

	name := a.user.Name
	a.logoutSilently()
	fmt.Fprintln(a.out, okColor.Sprintf("Profile %s deleted.", name))
	return nil
}
