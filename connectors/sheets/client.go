package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/jwt"
)

const (
	defaultBaseURL = "https://sheets.googleapis.com"
	tokenURL       = "https://oauth2.googleapis.com/token"
	ScopeReadonly  = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// Client reads cell values through the Sheets v4 REST API.
type Client struct {
	c    *http.Client
	base string
}

// New authenticates with a service account. The token is fetched on first
// use and refreshed by the oauth2 transport when it expires.
func New(ctx context.Context, email, privateKey string) (*Client, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(privateKey) == "" {
		return nil, errors.New("sheets: service account email and private key are required")
	}
	cfg := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(NormalizePrivateKey(privateKey)),
		Scopes:     []string{ScopeReadonly},
		TokenURL:   tokenURL,
	}
	hc := cfg.Client(ctx)
	hc.Timeout = 30 * time.Second
	return &Client{c: hc, base: defaultBaseURL}, nil
}

// NewWithHTTPClient uses c as is against baseURL ("" for Google).
func NewWithHTTPClient(c *http.Client, baseURL string) *Client {
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{c: c, base: strings.TrimRight(baseURL, "/")}
}

// NormalizePrivateKey expands literal "\n" sequences, as found in keys
// pasted into environment variables.
func NormalizePrivateKey(k string) string {
	k = strings.Trim(strings.TrimSpace(k), `"`)
	return strings.ReplaceAll(k, `\n`, "\n")
}

type valueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// Values returns the formatted cells of rng, row by row. Trailing empty
// cells are omitted by the API so rows may differ in length.
func (c *Client) Values(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?majorDimension=ROWS&valueRenderOption=FORMATTED_VALUE",
		c.base, url.PathEscape(spreadsheetID), url.PathEscape(rng))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", spreadsheetID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets request failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out, nil
}
