package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
)

// PurgeTokensCommand runs the maintenance sweep once: expired verification
// and reset tokens, then audit events past retention.
type PurgeTokensCommand struct {
	Config        *config.Config
	DatabasePath  string
	RetentionDays int
	SkipAudit     bool
	Out           io.Writer
}

func NewPurgeTokensCommand() *PurgeTokensCommand {
	return &PurgeTokensCommand{Out: os.Stdout}
}

func (cmd *PurgeTokensCommand) ParseFlags(args []string) error {
	cmd.Config = loadConfig(cmd.Config)

	fs := flag.NewFlagSet("purge-tokens", flag.ExitOnError)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the SQLite database file")
	fs.IntVar(&cmd.RetentionDays, "audit-retention-days", cmd.Config.Audit.RetentionDays, "Delete audit events older than this many days")
	fs.BoolVar(&cmd.SkipAudit, "skip-audit", false, "Only purge tokens, keep audit events")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s purge-tokens [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete expired e-mail verification and password reset tokens, and\n")
		fmt.Fprintf(os.Stderr, "audit events older than the retention period.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *PurgeTokensCommand) Run() error {
	cfg := loadConfig(cmd.Config)

	db, err := openDatabase(cfg, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := auth.NewService(db.DB, cfg.Auth, cfg.App.BaseURL, nil)
	purged, err := svc.PurgeExpiredTokens(time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Out, "Purged %d expired tokens\n", purged)

	if cmd.SkipAudit {
		return nil
	}

	days := cmd.RetentionDays
	if days <= 0 {
		days = cfg.Audit.RetentionDays
	}
	if days <= 0 {
		fmt.Fprintln(cmd.Out, "Audit retention is not set, keeping audit events")
		return nil
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	deleted, err := auditService.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("failed to delete old audit events: %w", err)
	}
	fmt.Fprintf(cmd.Out, "Deleted %d audit events older than %d days\n", deleted, days)
	return nil
}
