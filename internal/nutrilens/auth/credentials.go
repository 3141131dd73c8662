// Package auth stores the API token obtained by logging in.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nutrilens/nlens/internal/nutrilens/config"
)

const credentialsFile = "credentials.toml"

// ErrNoCredentials is returned when nobody has logged in.
var ErrNoCredentials = errors.New("not logged in")

// Credentials is what a successful login leaves behind.
type Credentials struct {
	Token    string    `toml:"token"`
	Username string    `toml:"username"`
	Name     string    `toml:"name"`
	SavedAt  time.Time `toml:"saved_at"`
}

// Path returns the credentials file location, next to the config file.
func Path() (string, error) {
	return config.ResolvePath(credentialsFile)
}

// Save writes the credentials, readable by the owner only.
func Save(c *Credentials) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	// OpenFile keeps the mode of an existing file.
	if err := f.Chmod(0600); err != nil {
		return fmt.Errorf("failed to restrict credentials file: %w", err)
	}
	return nil
}

// Load reads the saved credentials. It returns ErrNoCredentials when the
// file does not exist or holds no token.
func Load() (*Credentials, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	var c Credentials
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	if c.Token == "" {
		return nil, ErrNoCredentials
	}
	return &c, nil
}

// Delete removes the saved credentials. Deleting when logged out is not an
// error.
func Delete() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}
