package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/danya1a/Reminder-bot/internal/version"
)

// Migration System Overview:
//
// Schema versions are recorded in the migration_history table.
//
// Migration Flow:
// 1. preMigrate: if the reminder table does not exist, apply LATEST.sql and
//    record the current schema version.
// 2. Migrate: apply every patch file whose version lies in
//    (recorded version, current version], in a single transaction.
//
// Migration Files:
// - Location: store/migration/{driver}/{minor}/NN__description.sql
// - Version of a patch file is {minor}.{NN+1}
// - LATEST.sql: full schema for new installations

//go:embed migration
var migrationFS embed.FS

const (
	// MigrateFileNameSplit is the split character between the patch version and the description in the migration file name.
	// For example, "00__add_reminder_note.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	// baseSchemaVersion is reported when no patch files exist.
	baseSchemaVersion = "0.1.0"

	modeProd = "prod"
)

// validateMigrationFileName checks if a migration file follows the expected naming convention.
// Expected format: "NN__description.sql" where NN is a zero-padded number.
func validateMigrationFileName(filename string) error {
	parts := strings.Split(filename, MigrateFileNameSplit)
	if len(parts) < 2 {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// Migrate migrates the database schema to the latest version.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	currentSchemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	databaseSchemaVersion, err := s.getDatabaseSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get database schema version")
	}

	if version.IsVersionGreaterThan(databaseSchemaVersion, currentSchemaVersion) {
		if s.profile.Mode == modeProd {
			slog.Error("cannot downgrade schema version",
				slog.String("databaseVersion", databaseSchemaVersion),
				slog.String("currentVersion", currentSchemaVersion),
			)
			return errors.Errorf("cannot downgrade schema version from %s to %s", databaseSchemaVersion, currentSchemaVersion)
		}
		slog.Warn("database schema is newer than this binary",
			slog.String("databaseVersion", databaseSchemaVersion),
			slog.String("currentVersion", currentSchemaVersion),
		)
		return nil
	}

	if version.IsVersionGreaterThan(currentSchemaVersion, databaseSchemaVersion) {
		if err := s.applyMigrations(ctx, databaseSchemaVersion, currentSchemaVersion); err != nil {
			return errors.Wrap(err, "failed to apply migrations")
		}
	}
	return nil
}

// applyMigrations applies all migration files between current and target schema versions
// in a single transaction.
func (s *Store) applyMigrations(ctx context.Context, currentSchemaVersion, targetSchemaVersion string) error {
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s*/*.sql", s.getMigrationBasePath()))
	if err != nil {
		return errors.Wrap(err, "failed to read migration files")
	}
	sort.Strings(filePaths)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration",
		slog.String("currentSchemaVersion", currentSchemaVersion),
		slog.String("targetSchemaVersion", targetSchemaVersion))

	migrationsApplied := 0
	for _, filePath := range filePaths {
		fileSchemaVersion, err := getSchemaVersionOfMigrateScript(filePath)
		if err != nil {
			return errors.Wrap(err, "failed to get schema version of migrate script")
		}
		if !version.IsVersionGreaterThan(fileSchemaVersion, currentSchemaVersion) ||
			!version.IsVersionGreaterOrEqualThan(targetSchemaVersion, fileSchemaVersion) {
			continue
		}

		if err := validateMigrationFileName(filepath.Base(filePath)); err != nil {
			slog.Warn("migration file has invalid name but will be applied", slog.String("file", filePath), slog.String("error", err.Error()))
		}
		slog.Info("applying migration", slog.String("file", filePath), slog.String("version", fileSchemaVersion))

		bytes, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		if err := execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
		migrationsApplied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", migrationsApplied))

	if _, err := s.driver.UpsertMigrationHistory(ctx, &MigrationHistory{
		Version:   targetSchemaVersion,
		CreatedTs: time.Now().Unix(),
	}); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return nil
}

// preMigrate checks if the database is initialized and applies the latest schema if not.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	schemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	if _, err := s.driver.UpsertMigrationHistory(ctx, &MigrationHistory{
		Version:   schemaVersion,
		CreatedTs: time.Now().Unix(),
	}); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	slog.Info("database initialized successfully", slog.String("schemaVersion", schemaVersion))
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// GetCurrentSchemaVersion returns the schema version this binary migrates to:
// the highest patch file version for the configured driver.
func (s *Store) GetCurrentSchemaVersion() (string, error) {
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s*/*.sql", s.getMigrationBasePath()))
	if err != nil {
		return "", errors.Wrap(err, "failed to read migration files")
	}

	current := baseSchemaVersion
	for _, filePath := range filePaths {
		fileVersion, err := getSchemaVersionOfMigrateScript(filePath)
		if err != nil {
			return "", err
		}
		if version.IsVersionGreaterThan(fileVersion, current) {
			current = fileVersion
		}
	}
	return current, nil
}

// getDatabaseSchemaVersion returns the highest recorded version, or the base
// version for databases created before history tracking.
func (s *Store) getDatabaseSchemaVersion(ctx context.Context) (string, error) {
	list, err := s.driver.FindMigrationHistoryList(ctx)
	if err != nil {
		return "", err
	}
	latest := baseSchemaVersion
	for _, history := range list {
		if version.IsVersionGreaterThan(history.Version, latest) {
			latest = history.Version
		}
	}
	return latest, nil
}

// getSchemaVersionOfMigrateScript extracts "major.minor.patch" from
// ".../{major.minor}/NN__description.sql" as {major.minor}.{NN+1}.
func getSchemaVersionOfMigrateScript(filePath string) (string, error) {
	elements := strings.Split(filepath.ToSlash(filePath), "/")
	if len(elements) < 2 {
		return "", errors.Errorf("invalid file path: %s", filePath)
	}
	minorVersion := elements[len(elements)-2]
	rawPatchVersion := strings.Split(elements[len(elements)-1], MigrateFileNameSplit)[0]
	patchVersion, err := strconv.Atoi(rawPatchVersion)
	if err != nil {
		return "", errors.Wrapf(err, "failed to convert patch version to int: %s", rawPatchVersion)
	}
	return fmt.Sprintf("%s.%d", minorVersion, patchVersion+1), nil
}

// execute runs a multi-statement script. Both drivers accept several
// statements in one call when no arguments are bound.
func execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}
	return nil
}
