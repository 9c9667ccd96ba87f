package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/pillbox/internal/cli"
	"github.com/julianstephens/pillbox/internal/config"
	"github.com/julianstephens/pillbox/internal/constants"
	pberrors "github.com/julianstephens/pillbox/internal/errors"
	"github.com/julianstephens/pillbox/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite or JSON file path, PostgreSQL connection string, or 'keyring'. Defaults to PILLBOX_DB_CONNECTION, then ~/.config/pillbox/pillbox.db. PostgreSQL passwords must NOT be embedded; use .pgpass, PGPASSWORD or the OS keyring." type:"string"`
	EnvFile string `help:"Load PILLBOX_* settings from this .env file." name:"env-file" default:".env"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init   cli.InitCmd   `cmd:"" help:"Initialize pillbox storage."`
	Tui    cli.TuiCmd    `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Today  cli.TodayCmd  `cmd:"" help:"Show today's checklist."`
	List   cli.ListCmd   `cmd:"" help:"List supplements."`
	Add    cli.AddCmd    `cmd:"" help:"Add a supplement."`
	Take   cli.TakeCmd   `cmd:"" help:"Mark supplements as taken today."`
	Edit   cli.EditCmd   `cmd:"" help:"Edit a supplement."`
	Delete cli.DeleteCmd `cmd:"" help:"Delete a supplement."`
	Stats  cli.StatsCmd  `cmd:"" help:"Show completion, streak and weekly history."`

	Reminder cli.ReminderCmd `cmd:"" help:"Show or change the daily reminder."`
	Notify   cli.NotifyCmd   `cmd:"" help:"Evaluate the reminder now and send it if something is pending."`
	Watch    cli.WatchCmd    `cmd:"" help:"Run in the foreground and deliver the daily reminder."`

	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage store backups."`
	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    cli.KeyringGetCmd    `cmd:"" help:"Show a stored secret, masked."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
		Status cli.KeyringStatusCmd `cmd:"" help:"Check the OS keyring."`
	} `cmd:"" help:"Manage secrets in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily supplement checklist with streaks and a single evening reminder"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.EnvFile)
	if err != nil {
		pberrors.Fatal(err)
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	store, err := cli.NewGateway(cli.ResolveStorePath(CLI.Config, cfg))
	if err != nil {
		pberrors.Fatal(err)
	}

	var extra io.Writer
	if ctx.Command() == "watch" {
		extra = os.Stdout
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cli.ConfigDir(store), Extra: extra}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer func() { _ = logger.Close() }()

	appCtx, err := cli.NewContext(store, cfg)
	if err != nil {
		pberrors.Fatal(err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	}()

	if err := ctx.Run(appCtx); err != nil {
		pberrors.Fatal(err)
	}
}
