package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	viper.SetConfigFile(filepath.Join(dir, "config.toml"))
	t.Cleanup(viper.Reset)
	return dir
}

func TestSaveLoadDelete(t *testing.T) {
	dir := useTempConfigDir(t)
	saved := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	if err := Save(&Credentials{Token: "abc123", Username: "kim", Name: "Kim", SavedAt: saved}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Token != "abc123" || got.Username != "kim" || !got.SavedAt.Equal(saved) {
		t.Errorf("Load() = %+v", got)
	}

	if err := Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := Load(); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Load() after delete error = %v, want ErrNoCredentials", err)
	}
	if err := Delete(); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestLoadWithoutToken(t *testing.T) {
	dir := useTempConfigDir(t)
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte("username = \"kim\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Load() error = %v, want ErrNoCredentials", err)
	}
}

func TestLoadCorrupted(t *testing.T) {
	dir := useTempConfigDir(t)
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte("token = "), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	if err == nil || errors.Is(err, ErrNoCredentials) {
		t.Errorf("Load() error = %v, want a parse error", err)
	}
}
