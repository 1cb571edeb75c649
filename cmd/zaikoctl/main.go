package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zaiko-app/zaiko/internal/client"
	"github.com/zaiko-app/zaiko/internal/config"
	"github.com/zaiko-app/zaiko/internal/logging"
	"github.com/zaiko-app/zaiko/internal/viewmodel"
)

const usage = `Usage: zaikoctl [flags] <command> [args]

Commands:
  login -u <name>                  sign in (asks for the password)
  logout                           sign out and revoke the token
  whoami                           show the signed-in user
  list [-completed]                list active (or completed) items
  add -name <n> [-price <yen>] [-shipping <yen>] [-notes <text>]
  edit <id> [-name] [-price] [-shipping] [-notes] [-status]
  next <id>, prev <id>             move an item one stage forward or back
  rm [-y] <id>                     delete an item (asks unless -y)
  show <id>                        show one item with its fee breakdown
  photo <id> <file>                upload a listing photo
  summary                          totals per stage and profit
  passwd                           change your password
  useradd -u <name> [-role <r>]    create an account (admin only)

Flags:
  -url <url>          server address (env ZAIKO_URL, default: http://localhost:8080)
  -session <path>     session file (env ZAIKO_SESSION)
  -v                  log diagnostics to stderr
  -h, -help           show this help and exit

Item ids may be shortened to any unique prefix.
`

// app is one zaikoctl invocation.
type app struct {
	client   *client.Client
	sessions *client.Sessions
	ctl      *viewmodel.Controller

	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

func newApp(cfg config.Client, httpClient *http.Client, in io.Reader, out io.Writer, logger *slog.Logger) *app {
	c := client.New(cfg.URL, httpClient)
	sessions := client.NewSessions(c, cfg.SessionPath)
	return &app{
		client:   c,
		sessions: sessions,
		ctl:      viewmodel.NewController(sessions, c, logger),
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
	}
}

func main() {
	cfg := config.LoadClient()

	fs := flag.NewFlagSet("zaikoctl", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	verbose := fs.Bool("v", false, "")
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.DiscardHandler)
	if *verbose {
		logger = slog.New(logging.NewHandler(os.Stderr, os.Stderr, slog.LevelDebug))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, nil, os.Stdin, os.Stdout, logger)
	defer a.ctl.Close()

	if err := a.run(ctx, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "zaikoctl: %v\n", describe(err))
		stop()
		os.Exit(1)
	}
}

// run dispatches one command.
func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, rest)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "list", "ls":
		return a.cmdList(ctx, rest)
	case "add":
		return a.cmdAdd(ctx, rest)
	case "edit":
		return a.cmdEdit(ctx, rest)
	case "next":
		return a.cmdMove(ctx, rest, true)
	case "prev":
		return a.cmdMove(ctx, rest, false)
	case "rm":
		return a.cmdRemove(ctx, rest)
	case "show":
		return a.cmdShow(ctx, rest)
	case "photo":
		return a.cmdPhoto(ctx, rest)
	case "summary":
		return a.cmdSummary(ctx)
	case "passwd":
		return a.cmdPasswd(ctx)
	case "useradd":
		return a.cmdUserAdd(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q (see zaikoctl -h)", cmd)
	}
}

// describe turns well-known errors into short user-facing messages.
func describe(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("not signed in or session expired, run: zaikoctl login")
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return errors.New(apiErr.Message)
	}
	return err
}

// prompt prints label and reads one line of input.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question on the terminal. Anything but y or yes
// is a no.
func (a *app) confirm(question string) bool {
	answer, err := a.prompt(question + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
