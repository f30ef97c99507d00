package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
)

// CreateAdminCommand creates an administrator, or promotes an existing
// account with the same e-mail.
type CreateAdminCommand struct {
	Config       *config.Config
	DatabasePath string
	Email        string
	Name         string
	Password     string
	Out          io.Writer

	// readPassword prompts for the password when -password is not given.
	readPassword func() (string, error)
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{Out: os.Stdout, readPassword: promptPassword}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	cmd.Config = loadConfig(cmd.Config)

	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the SQLite database file")
	fs.StringVar(&cmd.Email, "email", "", "Administrator e-mail (required)")
	fs.StringVar(&cmd.Name, "name", "Administrador", "Administrator display name")
	fs.StringVar(&cmd.Password, "password", "", "Password (prompted for when omitted)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account. An existing account with the same\n")
		fmt.Fprintf(os.Stderr, "e-mail is promoted to admin and marked verified instead.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -email admin@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-admin -email admin@example.com -db ./data/bookshelf.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Email == "" {
		fs.Usage()
		return errors.New("-email is required")
	}
	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	cfg := loadConfig(cmd.Config)

	db, err := openDatabase(cfg, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := auth.NewService(db.DB, cfg.Auth, cfg.App.BaseURL, nil)

	password := cmd.Password
	if password == "" {
		exists, err := accountExists(svc, cmd.Email)
		if err != nil {
			return err
		}
		if !exists {
			if cmd.readPassword == nil {
				return errors.New("-password is required")
			}
			if password, err = cmd.readPassword(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
	}

	admin, created, err := svc.EnsureAdmin(config.Admin{Email: cmd.Email, Password: password, Name: cmd.Name})
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.Out, "Created admin account %s (id %d)\n", admin.Email, admin.ID)
	} else {
		fmt.Fprintf(cmd.Out, "Promoted %s to admin\n", admin.Email)
	}
	return nil
}

func accountExists(svc *auth.Service, email string) (bool, error) {
	_, err := svc.GetUserByEmail(email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// promptPassword reads the password without echo on a terminal, or a line
// from stdin when it is piped.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
