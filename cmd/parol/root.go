package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/atinyakov/parol/internal/config"
	"github.com/atinyakov/parol/internal/crypto"
	"github.com/atinyakov/parol/internal/logger"
	"github.com/atinyakov/parol/internal/prompt"
	"github.com/atinyakov/parol/internal/service"
	"github.com/atinyakov/parol/internal/storage"
)

const envPassword = "PAROL_PASSWORD"

// app carries the state shared by every subcommand.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	dbPath     string
	logLevel   string

	opts   *config.Options
	log    *logger.Logger
	store  *storage.Store
	keeper *service.Keeper
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, log: logger.New()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "parol",
		Short: "parol - local encrypted password store",
		Long: `parol keeps application credentials in a single file encrypted
with a master password.

The master password is read from PAROL_PASSWORD when set, otherwise it is
prompted for.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default $HOME/.config/parol/config.yaml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database file path")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newPasswdCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newBenchCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	opts, err := config.Parse(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		opts.DatabaseFile = a.dbPath
	}
	if a.logLevel != "" {
		opts.LogLevel = a.logLevel
	}
	a.opts = opts

	if err := a.log.Init(opts.LogLevel); err != nil {
		return err
	}
	if _, err := opts.EnsureDataDir(); err != nil {
		return err
	}

	store, err := storage.New(opts.DatabasePath(), storage.WithLogger(a.log.Log))
	if err != nil {
		return err
	}
	a.store = store
	a.keeper = service.NewKeeper(store, a.log.Log)

	a.log.Log.Debug("parol started")
	return nil
}

// withTimeout bounds a command by the configured lock timeout.
func (a *app) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.opts == nil || a.opts.LockTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.opts.LockTimeout)
}

// password returns the master password from the environment or a prompt.
func (a *app) password(label string) (string, error) {
	pw, ok := os.LookupEnv(envPassword)
	if !ok {
		var err error
		if pw, err = a.ask(label); err != nil {
			return "", err
		}
	}
	a.warnWeak(pw)
	return pw, nil
}

func (a *app) ask(label string) (string, error) {
	return prompt.Password(a.in, a.errOut, label)
}

func (a *app) warnWeak(pw string) {
	if crypto.IsWeak(pw) {
		fmt.Fprintln(a.errOut, "warning: empty master password, the database is effectively unencrypted")
	}
}

// describe turns known error classes into user-facing messages.
func describe(err error) string {
	switch {
	case errors.Is(err, storage.ErrCannotOpen):
		return "cannot open the database: wrong password or corrupted file"
	case errors.Is(err, crypto.ErrKeyLength):
		return fmt.Sprintf("master password is too long: at most %d bytes", crypto.KeySize)
	case errors.Is(err, service.ErrNotFound):
		return err.Error()
	case errors.Is(err, service.ErrChanged):
		return "the record was modified by another process, run edit again"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out waiting for the database lock"
	default:
		return err.Error()
	}
}
