package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jdelaire/ratesbot/internal/keychain"
	"github.com/jdelaire/ratesbot/internal/paramstore"
)

// ErrNoToken is returned when no source holds a bot token.
var ErrNoToken = errors.New("no telegram bot token configured")

// KeychainGetter reads a secret by account name.
type KeychainGetter func(account string) (string, error)

// Resolver finds the Telegram bot token. Sources are tried in order: the
// explicit token, the SSM parameter, the OS keychain.
type Resolver struct {
	Token           string
	Parameter       string
	KeychainAccount string

	Params   paramstore.Getter
	Keychain KeychainGetter
	Logger   *slog.Logger
}

// Resolve returns the first non-empty token.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if t := strings.TrimSpace(r.Token); t != "" {
		r.Logger.Debug("bot token from config")
		return t, nil
	}

	if r.Parameter != "" {
		if r.Params == nil {
			return "", fmt.Errorf("token parameter %q set but no parameter store client", r.Parameter)
		}
		t, err := r.Params.GetParameter(ctx, r.Parameter)
		if err != nil {
			return "", fmt.Errorf("read token parameter: %w", err)
		}
		if t = strings.TrimSpace(t); t != "" {
			r.Logger.Debug("bot token from parameter store", "parameter", r.Parameter)
			return t, nil
		}
	}

	if r.KeychainAccount != "" && r.Keychain != nil {
		t, err := r.Keychain(r.KeychainAccount)
		switch {
		case errors.Is(err, keychain.ErrNotFound):
		case err != nil:
			r.Logger.Warn("keychain lookup failed", "account", r.KeychainAccount, "error", err)
		default:
			if t = strings.TrimSpace(t); t != "" {
				r.Logger.Debug("bot token from keychain", "account", r.KeychainAccount)
				return t, nil
			}
		}
	}

	return "", ErrNoToken
}
