package namespace

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/docstore"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/jsonfile"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
)

// MigrationStatus is the outcome of migrating one collection.
type MigrationStatus string

const (
	MigrationSkipped  MigrationStatus = "skipped"
	MigrationMigrated MigrationStatus = "migrated"
	MigrationFailed   MigrationStatus = "failed"
)

// MigrationResult describes what happened to one collection.
type MigrationResult struct {
	Kind    model.CollectionKind
	Status  MigrationStatus
	Records int
	Err     error
}

// MigrationReport collects the per-collection results of one migration pass.
type MigrationReport struct {
	Results []MigrationResult
}

// Err joins the errors of all failed collections.
func (r MigrationReport) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Kind, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Migrated reports how many collections were copied from legacy files.
func (r MigrationReport) Migrated() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == MigrationMigrated {
			n++
		}
	}
	return n
}

// migrateLegacy copies the shared pre-multi-tenant files into a user's
// collections that do not exist yet. It runs on every request for the
// default tenant; once the user's files exist every collection is skipped.
func (p *Provisioner) migrateLegacy(ns *Namespace) MigrationReport {
	var report MigrationReport
	for _, h := range []docstore.Handle{ns.Expenses, ns.Groceries} {
		res := p.migrateCollection(h)
		p.metrics.IncLegacyMigration(string(res.Status))
		if res.Status == MigrationMigrated {
			p.logger.Info("legacy data migrated",
				slog.String("user_id", ns.UserID),
				slog.String("collection", string(h.Kind)),
				slog.Int("records", res.Records),
			)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func (p *Provisioner) migrateCollection(h docstore.Handle) MigrationResult {
	res := MigrationResult{Kind: h.Kind, Status: MigrationSkipped}

	exists, err := jsonfile.Exists(h.Path)
	if err != nil {
		return failed(res, err)
	}
	if exists {
		return res
	}

	legacyPath := filepath.Join(p.legacyDir, h.Kind.FileName())
	legacyExists, err := jsonfile.Exists(legacyPath)
	if err != nil {
		return failed(res, err)
	}
	if !legacyExists {
		return res
	}

	// Legacy files are copied verbatim; records are not reinterpreted.
	legacy, err := jsonfile.ReadArray[json.RawMessage](legacyPath)
	if err != nil {
		return failed(res, err)
	}
	if len(legacy) == 0 {
		return res
	}
	// Every element must load as a record, or the collection would be
	// unreadable for good once written.
	for i, raw := range legacy {
		var rec model.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return failed(res, fmt.Errorf("legacy %s element %d: %w", h.Kind, i, err))
		}
	}

	created, err := jsonfile.WriteNew(h.Path, legacy)
	if err != nil {
		return failed(res, err)
	}
	if !created {
		// Another request provisioned the collection first.
		return res
	}

	res.Status = MigrationMigrated
	res.Records = len(legacy)
	return res
}

func failed(res MigrationResult, err error) MigrationResult {
	res.Status = MigrationFailed
	res.Err = err
	return res
}
