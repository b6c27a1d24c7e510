// Package namespace maps a user identity to its on-disk storage area and
// creates the user's collections on first use.
package namespace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/docstore"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/jsonfile"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/metrics"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
)

// MaxUserIDLength bounds user IDs, which are used as directory names.
const MaxUserIDLength = 64

// ErrInvalidUserID is returned for IDs that are not a safe directory name.
var ErrInvalidUserID = errors.New("invalid user id")

// Namespace is the set of collection handles owned by one user.
type Namespace struct {
	UserID    string
	Dir       string
	Expenses  docstore.Handle
	Groceries docstore.Handle
}

// Handle returns the collection handle for kind.
func (n *Namespace) Handle(kind model.CollectionKind) (docstore.Handle, error) {
	switch kind {
	case model.KindExpenses:
		return n.Expenses, nil
	case model.KindGroceries:
		return n.Groceries, nil
	default:
		return docstore.Handle{}, fmt.Errorf("unknown collection %q", kind)
	}
}

// Provisioner creates per-user storage areas under a data directory.
type Provisioner struct {
	usersDir  string
	legacyDir string
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewProvisioner creates a Provisioner rooted at dataDir. Legacy files for
// the default tenant are looked up in legacyDir.
func NewProvisioner(dataDir, legacyDir string, logger *slog.Logger, recorder metrics.Recorder) *Provisioner {
	if legacyDir == "" {
		legacyDir = dataDir
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		usersDir:  filepath.Join(dataDir, "users"),
		legacyDir: legacyDir,
		logger:    logger,
		metrics:   recorder,
	}
}

// Ensure makes sure the user's directory and collection files exist and
// returns their handles. Existing files are never touched, so calling it on
// every request is safe.
func (p *Provisioner) Ensure(ctx context.Context, userID string) (*Namespace, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(p.usersDir, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create user dir: %w", err)
	}

	ns := &Namespace{
		UserID:    userID,
		Dir:       dir,
		Expenses:  docstore.Handle{UserID: userID, Kind: model.KindExpenses, Path: filepath.Join(dir, model.KindExpenses.FileName())},
		Groceries: docstore.Handle{UserID: userID, Kind: model.KindGroceries, Path: filepath.Join(dir, model.KindGroceries.FileName())},
	}

	if userID == model.DefaultUserID {
		report := p.migrateLegacy(ns)
		// Migration is best effort; a failure leaves the collection to be
		// created empty below and is never reported to the caller.
		if err := report.Err(); err != nil {
			p.logger.Debug("legacy migration failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	for _, h := range []docstore.Handle{ns.Expenses, ns.Groceries} {
		if _, err := jsonfile.CreateExclusive(h.Path, jsonfile.EmptyArray); err != nil {
			return nil, fmt.Errorf("create %s collection: %w", h.Kind, err)
		}
	}

	return ns, nil
}

// ValidateUserID checks that id can be used as a single path segment.
func ValidateUserID(id string) error {
	if id == "" || len(id) > MaxUserIDLength {
		return ErrInvalidUserID
	}
	if id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return ErrInvalidUserID
	}
	for _, r := range id {
		if r == '/' || r == '\\' || r == ':' || unicode.IsControl(r) || unicode.IsSpace(r) {
			return ErrInvalidUserID
		}
	}
	return nil
}
