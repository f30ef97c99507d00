package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
)

// SeedCommand prepares a fresh database: schema, default genres and the
// admin account from ADMIN_EMAIL / ADMIN_PASSWORD.
type SeedCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{Out: os.Stdout}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	cmd.Config = loadConfig(cmd.Config)

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the SQLite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create the schema, insert the default genres and bootstrap the admin account.\n\n")
		fmt.Fprintf(os.Stderr, "The admin account is read from ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME.\n")
		fmt.Fprintf(os.Stderr, "Running the command twice is safe.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
	cfg := loadConfig(cmd.Config)

	db, err := openDatabase(cfg, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	var genreCount int64
	if err := db.DB.Table("genres").Count(&genreCount).Error; err != nil {
		return fmt.Errorf("failed to count genres: %w", err)
	}
	fmt.Fprintf(cmd.Out, "Genres available: %d\n", genreCount)

	if cfg.Admin.Email == "" {
		fmt.Fprintln(cmd.Out, "ADMIN_EMAIL is not set, skipping admin account")
		return nil
	}

	svc := auth.NewService(db.DB, cfg.Auth, cfg.App.BaseURL, nil)
	admin, created, err := svc.EnsureAdmin(cfg.Admin)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if created {
		fmt.Fprintf(cmd.Out, "Created admin account %s\n", admin.Email)
	} else {
		fmt.Fprintf(cmd.Out, "Admin account %s already exists\n", admin.Email)
	}
	return nil
}
