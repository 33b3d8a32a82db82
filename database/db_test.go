package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
)

type widget struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;not null"`
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := Config{DSN: "file:" + filepath.Join(t.TempDir(), "test.db"), LogLevel: "silent"}
	db, err := Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_AppliesPoolSettings(t *testing.T) {
	db := openTestDB(t)

	sqlDB, err := db.GormDB.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
	if db.Config().MaxRetries != 5 {
		t.Errorf("Config().MaxRetries = %d, want 5", db.Config().MaxRetries)
	}
}

func TestOpen_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, Config{DSN: "file:" + filepath.Join(t.TempDir(), "x.db")}, logger.Nop())
	if err == nil {
		t.Fatal("Open() with canceled context should fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDB_CloseIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestDB_CheckHealth(t *testing.T) {
	db := openTestDB(t)

	if h := db.CheckHealth(context.Background()); h.Status != observability.HealthStatusUp {
		t.Errorf("Status = %q, want up", h.Status)
	}

	_ = db.Close()
	h := db.CheckHealth(context.Background())
	if h.Status != observability.HealthStatusDown {
		t.Errorf("Status after Close = %q, want down", h.Status)
	}
	if h.Name != "database" {
		t.Errorf("Name = %q, want database", h.Name)
	}
}

func TestDB_AutoMigrateAndDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	if err := db.WithContext(ctx).Create(&widget{Name: "gear"}).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := db.WithContext(ctx).Create(&widget{Name: "gear"}).Error
	if !IsDuplicateError(err) {
		t.Fatalf("IsDuplicateError(%v) = false", err)
	}
	if got := DuplicateField(err); got != "name" {
		t.Errorf("DuplicateField() = %q, want name", got)
	}
	appErr := FromDatabase(err, "widget")
	if appErr.HTTPStatus != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want 409", appErr.HTTPStatus)
	}
	if appErr.Code != apperrors.ErrCodeAlreadyExists {
		t.Errorf("Code = %q, want %q", appErr.Code, apperrors.ErrCodeAlreadyExists)
	}

	var w widget
	err = db.WithContext(ctx).First(&w, "name = ?", "missing").Error
	if !IsNotFoundError(err) {
		t.Fatalf("IsNotFoundError(%v) = false", err)
	}
	if got := FromDatabase(err, "widget").HTTPStatus; got != http.StatusNotFound {
		t.Errorf("HTTPStatus = %d, want 404", got)
	}
}

func TestDB_WithTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "rolled-back"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want boom", err)
	}

	err = db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "committed"}).Error
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}

	var count int64
	db.WithContext(ctx).Model(&widget{}).Count(&count)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestDB_WithTransactionPanicRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = db.WithTransaction(ctx, func(tx *gorm.DB) error {
			tx.Create(&widget{Name: "panicked"})
			panic("kaboom")
		})
	}()

	var count int64
	db.WithContext(ctx).Model(&widget{}).Count(&count)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestDuplicateField(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("UNIQUE constraint failed: users.username"), "username"},
		{fmt.Errorf("wrap: %w", errors.New("UNIQUE constraint failed: users.email")), "email"},
		{errors.New("UNIQUE constraint failed: a.x, a.y"), "x"},
		{errors.New("something else"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := DuplicateField(tt.err); got != tt.want {
			t.Errorf("DuplicateField(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFromDatabase_Busy(t *testing.T) {
	appErr := FromDatabase(errors.New("database is locked"), "task")
	if appErr.HTTPStatus != http.StatusServiceUnavailable || !appErr.Retryable {
		t.Errorf("busy error = %+v, want retryable 503", appErr)
	}
	if FromDatabase(nil, "task") != nil {
		t.Error("FromDatabase(nil) should be nil")
	}
	if got := FromDatabase(errors.New("disk I/O error"), "task").Code; got != apperrors.ErrCodeDatabaseError {
		t.Errorf("Code = %q, want %q", got, apperrors.ErrCodeDatabaseError)
	}
}

func TestGormLogger_Trace(t *testing.T) {
	l := newGormLogger(logger.Nop(), time.Millisecond, parseLogLevel("warn"))
	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, nil)
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("bad"))
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	if l.LogMode(parseLogLevel("silent")) == nil {
		t.Fatal("LogMode returned nil")
	}
}
