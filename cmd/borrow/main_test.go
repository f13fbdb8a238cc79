package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/borrow/internal/config"
	"github.com/erazemk/borrow/internal/model"
)

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	if err != nil {
		t.Fatalf("generatePassword: %v", err)
	}
	if len(a) != 16 {
		t.Errorf("expected 16 characters, got %d", len(a))
	}
	b, _ := generatePassword(16)
	if a == b {
		t.Error("expected two generated passwords to differ")
	}
}

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr, slog.LevelInfo, "text")).With("component", "test")

	logger.Debug("hidden")
	logger.Info("hello")
	logger.Warn("careful")
	logger.Error("broken")

	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug records should be dropped")
	}
	if !strings.Contains(stdout.String(), "hello") || !strings.Contains(stdout.String(), "careful") {
		t.Errorf("expected info and warn on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "broken") {
		t.Error("error records should not go to stdout")
	}
	if !strings.Contains(stderr.String(), "broken") || !strings.Contains(stderr.String(), "component=test") {
		t.Errorf("expected error with attrs on stderr, got %q", stderr.String())
	}
}

func TestLevelRouterDebugJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr, slog.LevelDebug, "json"))

	logger.Debug("sample", "n", 1)

	if !strings.Contains(stdout.String(), `"msg":"sample"`) {
		t.Errorf("expected JSON debug record on stdout, got %q", stdout.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("expected nothing on stderr, got %q", stderr.String())
	}
}

func TestRemoveDatabaseFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "borrow.sqlite3")
	for _, name := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := removeDatabaseFiles(path); err != nil {
		t.Fatalf("removeDatabaseFiles: %v", err)
	}
	for _, name := range []string{path, path + "-wal", path + "-shm"} {
		if _, err := os.Stat(name); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed, stat returned %v", filepath.Base(name), err)
		}
	}

	if err := removeDatabaseFiles(path); err != nil {
		t.Errorf("removing missing files should succeed, got %v", err)
	}
}

func TestSetupDatabaseFirstRunFailureLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "borrow.sqlite3")
	cfg := &config.Config{DBPath: path, AdminEmail: "not an email", TokenTTL: time.Hour}

	database, identity, err := setupDatabase(cfg)
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid admin email error, got %v", err)
	}
	if database != nil || identity != nil {
		t.Error("expected no database or identity on failure")
	}
	for _, name := range []string{path, path + "-wal", path + "-shm"} {
		if _, err := os.Stat(name); !os.IsNotExist(err) {
			t.Errorf("expected %s to be gone, stat returned %v", filepath.Base(name), err)
		}
	}

	// The next start is a first run again and succeeds.
	cfg.AdminEmail = "admin@borrow.local"
	database, identity, err = setupDatabase(cfg)
	if err != nil {
		t.Fatalf("setupDatabase: %v", err)
	}
	defer database.Close()
	if identity == nil {
		t.Fatal("expected an identity service")
	}
}
