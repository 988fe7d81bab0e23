// Command biztrack is a terminal client for the BizTrack API. It keeps the
// signed-in session in local storage between runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/auth"
	"github.com/dmitrymomot/biztrack/pkg/config"
	"github.com/dmitrymomot/biztrack/pkg/kvstore"
	"github.com/dmitrymomot/biztrack/pkg/logger"
	"github.com/dmitrymomot/biztrack/pkg/requestid"
	"github.com/dmitrymomot/biztrack/pkg/session"
	"github.com/dmitrymomot/biztrack/pkg/validator"
)

const appName = "biztrack"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "Error:", describe(err))
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	envFile := fs.String("env", "", "Path to a .env file")
	lang := fs.String("lang", "en", "Locale used to format amounts")
	fs.Usage = func() { usage(fs.Output()) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(fs.Output())
		return flag.ErrHelp
	}

	if *envFile != "" {
		if err := config.LoadEnv(*envFile); err != nil {
			return err
		}
	}

	var (
		logCfg   logger.Config
		apiCfg   apiclient.Config
		authCfg  auth.Config
		storeCfg kvstore.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&logCfg) },
		func() error { return config.Load(&apiCfg) },
		func() error { return config.Load(&authCfg) },
		func() error { return config.Load(&storeCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	tag, err := language.Parse(*lang)
	if err != nil {
		return fmt.Errorf("invalid -lang %q: %w", *lang, err)
	}

	log := logger.New(append(logger.FromConfig(logCfg, appName),
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)...)
	logger.SetAsDefault(log)

	store, err := kvstore.Open(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := kvstore.Close(store); err != nil {
			log.WarnContext(ctx, "failed to close storage", logger.Error(err))
		}
	}()

	client, err := apiclient.NewFromConfig(apiCfg, apiclient.WithLogger(log))
	if err != nil {
		return err
	}

	a := newApp(appDeps{
		client:   client,
		sessions: session.NewStore(store, session.WithLogger(log)),
		authOpts: auth.FromConfig(authCfg),
		logger:   log,
		lang:     tag,
		in:       in,
		out:      out,
	})
	defer func() { _ = a.ctrl.Close() }()

	return a.exec(ctx, fs.Arg(0), fs.Args()[1:])
}

// describe turns err into the line shown to the user.
func describe(err error) string {
	switch {
	case validator.IsValidationError(err):
		return validator.ExtractValidationErrors(err).First()
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "not signed in, run `biztrack login` first"
	}
	if _, ok := apiclient.AsError(err); ok {
		return apiclient.Message(err)
	}
	return err.Error()
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [-env file] [-lang tag] <command> [flags]\n\nCommands:\n", appName)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-13s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun '%s <command> -h' for command flags.\n", appName)
}

// appDeps are the pieces run builds from configuration.
type appDeps struct {
	client   *apiclient.Client
	sessions auth.SessionStore
	authOpts []auth.Option
	logger   *slog.Logger
	lang     language.Tag
	in       io.Reader
	out      io.Writer
}
