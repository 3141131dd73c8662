package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/auth"
	"github.com/nutrilens/nlens/internal/nutrilens/config"
)

var errNotLoggedIn = errors.New("no API token configured\n\nRun 'nlens login', or set NLENS_TOKEN or the token key in the config file")

// resolveToken returns the token to authenticate with. The --token flag,
// NLENS_TOKEN and the config file are already folded into cfg.Token by
// viper; the saved login is the fallback.
func resolveToken(cfg *config.Config) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	creds, err := auth.Load()
	if err != nil {
		if errors.Is(err, auth.ErrNoCredentials) {
			return "", nil
		}
		return "", err
	}
	return creds.Token, nil
}

// newClient creates an API client. With requireToken set, a missing token is
// an error.
func newClient(cfg *config.Config, requireToken bool) (*api.Client, error) {
	token, err := resolveToken(cfg)
	if err != nil {
		return nil, err
	}
	if requireToken && token == "" {
		return nil, errNotLoggedIn
	}

	client, err := api.NewClient(cfg.APIBaseURL, token, api.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}
	return client, nil
}

// describeAPIError adds a hint to errors the user can act on.
func describeAPIError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w\n\nYour token was rejected. Run 'nlens login' to sign in again.", err)
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w\n\nCheck that the NutriLens server is reachable (api_base_url).", err)
	}
	return err
}
