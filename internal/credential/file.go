package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/jsonfile"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
)

// FileBackend keeps every user in one JSON array file. Inserts rewrite the
// whole file, so they are O(n) in the number of users; a mutex serializes
// writers to avoid lost updates.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend opens (creating if needed) <dataDir>/auth/users.json.
func NewFileBackend(dataDir string) (*FileBackend, error) {
	dir := filepath.Join(dataDir, "auth")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create auth dir: %w", err)
	}

	path := filepath.Join(dir, "users.json")
	if _, err := jsonfile.CreateExclusive(path, jsonfile.EmptyArray); err != nil {
		return nil, fmt.Errorf("create users file: %w", err)
	}

	return &FileBackend{path: path}, nil
}

// Path returns the users file location.
func (b *FileBackend) Path() string {
	return b.path
}

// FindByUsername scans the users file.
func (b *FileBackend) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users, err := b.readAll()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// Insert appends user and rewrites the file.
func (b *FileBackend) Insert(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.readAll()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return ErrUsernameTaken
		}
	}

	users = append(users, *user)
	if err := jsonfile.WriteAtomic(b.path, users); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}

// Ping checks the users file is readable.
func (b *FileBackend) Ping(ctx context.Context) error {
	_, err := b.readAll()
	return err
}

func (b *FileBackend) readAll() ([]model.User, error) {
	users, err := jsonfile.ReadArray[model.User](b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.User{}, nil
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return users, nil
}
