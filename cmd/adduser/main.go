package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"member-ledger/internal/auth"
	"member-ledger/internal/storage"

	"golang.org/x/term"
)

const defaultDBPath = "data/membros.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	perfil := fs.String("perfil", "admin", "Role label stored with the user")
	dbPath := fs.String("db", defaultDBPath, "Path to SQLite database file")
	databaseURL := fs.String("database-url", "", "PostgreSQL connection string (overrides -db)")
	deactivate := fs.Bool("deactivate", false, "Deactivate an existing user instead of creating one")
	activate := fs.Bool("activate", false, "Reactivate an existing user instead of creating one")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-perfil <perfil>] [-db <db_path> | -database-url <dsn>] [-deactivate | -activate]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	if *deactivate && *activate {
		return errors.New("-deactivate and -activate are mutually exclusive")
	}

	// Allow overriding the database via env vars when the flags were left at their defaults
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == defaultDBPath {
		*dbPath = path
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && *databaseURL == "" {
		*databaseURL = dsn
	}

	opts := storage.Options{Driver: storage.DriverSQLite, Path: *dbPath}
	if *databaseURL != "" {
		opts = storage.Options{Driver: storage.DriverPostgres, DSN: *databaseURL}
	}

	if *deactivate || *activate {
		return setActive(opts, *username, *activate, stdout)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Check if user already exists
	existingUser, err := db.GetUserByUsername(ctx, *username)
	if err == nil && existingUser != nil {
		return fmt.Errorf("user %s already exists", *username)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := db.CreateUser(ctx, *username, hash, *perfil)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d (perfil %s)\n", user.Username, user.ID, user.Perfil)
	return nil
}

func setActive(opts storage.Options, username string, active bool, stdout io.Writer) error {
	ctx := context.Background()
	db, err := storage.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	n, err := db.SetUserActive(ctx, username, active)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s not found", username)
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(stdout, "User %s %s\n", username, state)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
