package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/biztrack/pkg/auth"
	"github.com/dmitrymomot/biztrack/pkg/bizapi"
	"github.com/dmitrymomot/biztrack/pkg/logger"
	"github.com/dmitrymomot/biztrack/pkg/requestid"
)

type app struct {
	ctrl  *auth.Controller
	api   *bizapi.Service
	log   *slog.Logger
	p     *message.Printer
	title cases.Caser
	in    *bufio.Reader
	out   io.Writer

	mu sync.Mutex
	// endWatch stops a running dashboard watch when the session ends.
	endWatch context.CancelFunc
}

func newApp(d appDeps) *app {
	a := &app{
		api:   bizapi.New(d.client),
		log:   d.logger,
		p:     message.NewPrinter(d.lang),
		title: cases.Title(d.lang),
		in:    bufio.NewReader(d.in),
		out:   d.out,
	}
	if a.log == nil {
		a.log = logger.Discard()
	}

	opts := append([]auth.Option{}, d.authOpts...)
	opts = append(opts, auth.WithLogger(a.log), auth.WithNavigator(auth.NavigatorFunc(a.navigate)))
	a.ctrl = auth.NewController(a.api, d.sessions, opts...)
	d.client.OnUnauthorized(a.ctrl.HandleUnauthorized)
	return a
}

// command is one CLI subcommand. setup registers its flags and returns the
// function that runs it once flags are parsed.
type command struct {
	name    string
	summary string
	// signedIn commands fail early without a validated session.
	signedIn bool
	setup    func(a *app, fs *flag.FlagSet) func(ctx context.Context) error
}

var commands = []command{
	{name: "login", summary: "Sign in", setup: loginCmd},
	{name: "logout", summary: "Sign out and forget the stored session", setup: logoutCmd},
	{name: "whoami", summary: "Show the signed-in user", signedIn: true, setup: whoamiCmd},
	{name: "forgot", summary: "Request a password reset email", setup: forgotCmd},
	{name: "reset", summary: "Set a new password with a reset token", setup: resetCmd},
	{name: "passwd", summary: "Change the password", signedIn: true, setup: passwdCmd},
	{name: "balance", summary: "Show, set or adjust the balance", signedIn: true, setup: balanceCmd},
	{name: "history", summary: "Show balance history", signedIn: true, setup: historyCmd},
	{name: "transactions", summary: "List transactions or show one", signedIn: true, setup: transactionsCmd},
	{name: "add", summary: "Record a transaction", signedIn: true, setup: addCmd},
	{name: "rm", summary: "Delete a transaction", signedIn: true, setup: rmCmd},
	{name: "logs", summary: "Show the action log", signedIn: true, setup: logsCmd},
	{name: "dashboard", summary: "Show balance and recent transactions", signedIn: true, setup: dashboardCmd},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// exec restores the stored session and runs the named command.
func (a *app) exec(ctx context.Context, name string, args []string) error {
	cmd, ok := lookup(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	fs := flag.NewFlagSet(appName+" "+name, flag.ContinueOnError)
	runCmd := cmd.setup(a, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Every request made by one command shares a correlation ID.
	ctx, _ = requestid.Ensure(ctx)

	// One-shot commands validate once at startup. Watch mode turns the
	// periodic check back on.
	a.ctrl.StopRevalidation()
	if err := a.ctrl.Start(ctx); err != nil {
		a.log.DebugContext(ctx, "stored session not restored", logger.Error(err))
	}
	if cmd.signedIn && a.ctrl.State() != auth.Authenticated {
		return auth.ErrNotAuthenticated
	}

	return runCmd(ctx)
}

func (a *app) navigate(ctx context.Context, to auth.Destination) {
	a.log.DebugContext(ctx, "navigate", slog.String("destination", string(to)))
	if to != auth.AuthFlow {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.endWatch != nil {
		a.endWatch()
	}
}

func (a *app) printf(format string, args ...any) {
	_, _ = a.p.Fprintf(a.out, format, args...)
}

// prompt reads one line from the input, for secrets not passed as flags.
func (a *app) prompt(label string) (string, error) {
	_, _ = fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
