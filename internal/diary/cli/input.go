package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for golang.org/x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSimpleText prints a prompt to w and reads a single line of input from
// reader. The line is trimmed. If EOF occurs after some input was read, the
// partial line is returned.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints prompt to w and reads a secret from the terminal
// without echo. The returned slice should be wiped by the caller.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetMultiline prints a prompt to w and reads lines until an empty line.
// The collected text is joined with '\n' and trimmed.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, _ := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// getSecret reads a secret without echo on a terminal and as a plain line
// otherwise, so piped input keeps working.
func (a *App) getSecret(prompt string) (string, error) {
	if !isTerminal(int(os.Stdin.Fd())) {
		return GetSimpleText(a.reader, prompt, a.out)
	}
	pw, err := GetPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// getNewSecret asks twice and requires both answers to match.
func (a *App) getNewSecret(prompt string) (string, error) {
	s, err := a.getSecret(prompt)
	if err != nil {
		return "", err
	}
	confirm, err := a.getSecret("Confirm")
	if err != nil {
		return "", err
	}
	if s != confirm {
		return "", errMismatch
	}
	return s, nil
}

// confirm asks a yes/no question; only "y" or "yes" count as consent.
func (a *App) confirm(prompt string) (bool, error) {
	ans, err := GetSimpleText(a.reader, prompt+" [y/N]", a.out)
	if err != nil {
		return false, err
	}
	ans = strings.ToLower(ans)
	return ans == "y" || ans == "yes", nil
}

var errMismatch = errors.New("entries do not match")
