package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn and printFn are test seams for user-facing REPL output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Profiles(ctx context.Context) error
	Create(ctx context.Context) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Forgot(ctx context.Context) error
	DeleteProfile(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Write(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	ExportAll(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Usage(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: profiles, create, login <name>, forgot, import <file> [merge|replace], export-all [file], usage, exit"
	helpLoggedIn  = "Available commands: (l)ist [YYYY-MM[-DD]], write [ruled|plain], edit <id>, show <id>, attach <id> <image>, " +
		"export [file], export-all [file], import <file> [merge|replace], delete-profile, usage, logout, exit"
)

// runREPL reads a line, parses the first token as the command and
// dispatches to a. Errors returned by handlers are rendered and the loop
// continues. The loop exits on EOF or on "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("diary %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			printlnFn()
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
		case "profiles":
			cmdErr = a.Profiles(ctx)
		case "create":
			cmdErr = a.Create(ctx)
		case "login":
			cmdErr = a.Login(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "forgot":
			cmdErr = a.Forgot(ctx)
		case "delete-profile":
			cmdErr = a.DeleteProfile(ctx)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "write":
			cmdErr = a.Write(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "attach":
			cmdErr = a.Attach(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)
		case "export-all":
			cmdErr = a.ExportAll(ctx, args)
		case "import":
			cmdErr = a.Import(ctx, args)
		case "usage":
			cmdErr = a.Usage(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(renderError(cmdErr))
		}
	}
}
