package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/solari/internal/common"
)

// authState is the persisted result of claiming a setup token. Setup tokens
// are single-use, so losing the access URL means issuing a new token; the
// state file is what makes repeat imports work.
type authState struct {
	ClaimedAt time.Time `json:"claimed_at"`
	AccessURL string    `json:"access_url"`
	TokenHint string    `json:"token_hint"`
}

// LoadOrClaim returns the saved access URL for this token, claiming the
// token and persisting the result if no usable state exists yet.
func LoadOrClaim(ctx context.Context, token, statePath string) (string, error) {
	if statePath == "" {
		path, err := defaultStatePath()
		if err != nil {
			return "", fmt.Errorf("failed to locate state file: %w", err)
		}
		statePath = path
	}

	if state, err := loadState(statePath); err == nil && state.AccessURL != "" {
		slog.Debug("using saved simplefin access URL",
			"claimed_at", state.ClaimedAt.Format("2006-01-02"),
			"state_file", statePath)
		return state.AccessURL, nil
	}

	accessURL, err := claimToken(ctx, token)
	if err != nil {
		return "", err
	}

	state := &authState{
		AccessURL: accessURL,
		ClaimedAt: time.Now().UTC(),
		TokenHint: tokenHint(token),
	}
	if err := saveState(statePath, state); err != nil {
		return "", fmt.Errorf("failed to save simplefin state: %w", err)
	}

	slog.Info("claimed simplefin access URL", "state_file", statePath)
	return accessURL, nil
}

// claimToken exchanges a one-time setup token for an access URL. Tokens are
// base64-encoded claim URLs; claiming is a bare POST to that URL.
func claimToken(ctx context.Context, token string) (string, error) {
	claimURL, err := decodeToken(token)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to claim simplefin token: %v", common.ErrExternalService, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read claim response: %v", common.ErrExternalService, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: simplefin claim returned %d: %s",
			common.ErrExternalService, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	accessURL := strings.TrimSpace(string(body))
	if !strings.HasPrefix(accessURL, "http://") && !strings.HasPrefix(accessURL, "https://") {
		return "", fmt.Errorf("%w: claim response is not a URL", common.ErrExternalService)
	}
	return accessURL, nil
}

func decodeToken(token string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return "", fmt.Errorf("%w: simplefin token is not base64", common.ErrInvalidConfig)
		}
	}

	claimURL := strings.TrimSpace(string(decoded))
	if !strings.HasPrefix(claimURL, "http://") && !strings.HasPrefix(claimURL, "https://") {
		return "", fmt.Errorf("%w: simplefin token does not decode to a claim URL", common.ErrInvalidConfig)
	}
	return claimURL, nil
}

// defaultStatePath keeps the claimed URL next to the database, under the
// user's data directory rather than the config directory.
func defaultStatePath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	dir := filepath.Join(dataDir, "solari")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "simplefin_auth.json"), nil
}

func loadState(path string) (*authState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state authState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func saveState(path string, state *authState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// tokenHint keeps just enough of the token to recognize it later.
func tokenHint(token string) string {
	if len(token) > 16 {
		return token[:8] + "..." + token[len(token)-8:]
	}
	return "short_token"
}
