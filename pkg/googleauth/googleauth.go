package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Profile is the subset of the Google identity returned after verification.
type Profile struct {
	GoogleID  string
	Email     string
	FirstName string
	LastName  string
}

// Verifier validates a Google ID token out-of-process and returns the profile
// embedded in it.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Profile, error)
}

// Client verifies ID tokens against Google's tokeninfo endpoint.
type Client struct {
	httpClient *http.Client
	clientID   string
	endpoint   string
	logger     zerolog.Logger
}

// New constructs a Google ID token verifier. The client ID constrains the
// token audience; tokens minted for other applications are rejected.
func New(clientID string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		clientID:   clientID,
		endpoint:   tokenInfoURL,
		logger:     logger.With().Str("component", "googleauth").Logger(),
	}
}

type tokenInfoResponse struct {
	Sub        string `json:"sub"`
	Aud        string `json:"aud"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Verify resolves the ID token to a Google profile, or fails.
func (c *Client) Verify(ctx context.Context, idToken string) (Profile, error) {
	if idToken == "" {
		return Profile{}, fmt.Errorf("google id token must not be empty")
	}

	endpoint := fmt.Sprintf("%s?id_token=%s", c.endpoint, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("call tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("tokeninfo rejected token: status=%d", resp.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if info.Sub == "" {
		return Profile{}, fmt.Errorf("tokeninfo response missing subject")
	}

	if c.clientID != "" && info.Aud != c.clientID {
		c.logger.Warn().Str("aud", info.Aud).Msg("google token audience mismatch")
		return Profile{}, fmt.Errorf("google token audience mismatch")
	}

	return Profile{
		GoogleID:  info.Sub,
		Email:     info.Email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
	}, nil
}
