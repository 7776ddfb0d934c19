package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

func TestCartSnapshotMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_snapshots.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one cart snapshot migration, found %d", len(matches))
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS cart_snapshots",
		"session_id TEXT PRIMARY KEY",
		"CREATE INDEX IF NOT EXISTS idx_cart_snapshots_expires_at",
		"DROP TABLE IF EXISTS cart_snapshots",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestCreateSQLMigrationProducesValidFile(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Cart Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_cart_notes.sql") {
		t.Fatalf("unexpected sanitized name %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cart.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}

func TestRunUpOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_run?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	defer sqlDB.Close()

	if err := Run(context.Background(), sqlDB, DialectFor(true), "migrations", "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}

	var count int64
	if err := conn.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'cart_snapshots'").Scan(&count).Error; err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected cart_snapshots table after migration")
	}
}

func TestRunRequiresArguments(t *testing.T) {
	if err := Run(context.Background(), nil, DialectPostgres, "migrations", "up"); err == nil {
		t.Fatal("expected nil db to fail")
	}
}

func TestValidateDirRejectsUnbalancedBlocks(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	if err := os.WriteFile(filepath.Join(dir, "20260301120000_broken.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "unbalanced") {
		t.Fatalf("expected unbalanced block error, got %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), " !! "); err == nil {
		t.Fatal("expected empty slug to fail")
	}
}

func TestMaybeRunDevSkipsOutsideDevDB(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "prod"
	cfg.FeatureFlags.AutoMigrate = true
	cfg.Cart.Backend = "db"
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), nil); err != nil {
		t.Fatalf("expected prod to skip, got %v", err)
	}

	cfg.App.Env = "dev"
	cfg.Cart.Backend = "redis"
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), nil); err != nil {
		t.Fatalf("expected redis backend to skip, got %v", err)
	}

	cfg.Cart.Backend = "db"
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), nil); err == nil {
		t.Fatal("expected missing client to fail")
	}
}
