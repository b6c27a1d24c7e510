// Command adduser creates an account in the configured credential store and
// provisions its empty collections.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/auth"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/credential"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/namespace"
)

type output struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
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
	dataDir := fs.String("data-dir", envOrDefault("DATA_DIR", "./data"), "Data directory")
	databaseURL := fs.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (optional)")
	table := fs.String("table", envOrDefault("CREDENTIAL_TABLE", "users"), "Credential table when using PostgreSQL")
	defaultCost, err := envIntOrDefault("BCRYPT_COST", 10)
	if err != nil {
		return err
	}
	cost := fs.Int("cost", defaultCost, "bcrypt cost (defaults to BCRYPT_COST)")
	format := fs.String("format", "plain", "Output format: plain or json")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-data-dir <dir>] [-database-url <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	if err := namespace.ValidateUserID(*username); err != nil {
		return fmt.Errorf("invalid username %q", *username)
	}
	if f := strings.ToLower(*format); f != "plain" && f != "json" {
		return fmt.Errorf("invalid format; use plain or json")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	hasher, err := auth.NewPasswordHasher(*cost)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, closeBackend, err := openBackend(ctx, *dataDir, *databaseURL, *table)
	if err != nil {
		return err
	}
	defer closeBackend()

	user, err := credential.NewStore(backend, hasher).Create(ctx, *username, password)
	if err != nil {
		if errors.Is(err, credential.ErrUsernameTaken) {
			return fmt.Errorf("user %s already exists", *username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if _, err := namespace.NewProvisioner(*dataDir, "", logger, nil).Ensure(ctx, user.ID); err != nil {
		return fmt.Errorf("user created but collections not provisioned: %w", err)
	}

	if strings.ToLower(*format) == "json" {
		out := output{ID: user.ID, Username: user.Username}
		if user.CreatedAt != nil {
			out.CreatedAt = user.CreatedAt.Format(time.RFC3339)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "User %s created successfully\n", user.Username)
	return nil
}

func openBackend(ctx context.Context, dataDir, databaseURL, table string) (credential.Backend, func(), error) {
	if databaseURL == "" {
		backend, err := credential.NewFileBackend(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		return backend, func() {}, nil
	}

	backend, err := credential.NewPostgresBackend(ctx, databaseURL, table)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return backend, backend.Close, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
