// Package azdo provides a REST client for the Azure DevOps work item
// tracking API. It implements a deep module interface - simple methods
// hiding the WIQL/JSON Patch plumbing underneath.
package azdo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zapdesk/zapdesk/internal/auth"
)

// apiVersion is pinned per request; the comments API is still preview-only.
const (
	apiVersion         = "7.0"
	commentsAPIVersion = "7.0-preview.3"
)

// Client is an Azure DevOps REST API client scoped to one organization.
// It provides high-level methods for querying and mutating work items.
type Client struct {
	baseURL string // https://dev.azure.com/{organization}, no trailing slash
	token   string
	httpc   *http.Client
}

// New creates a new Azure DevOps client for the given organization URL.
// It obtains a credential using the auth package.
// Returns an error if credential retrieval fails.
func New(orgURL string) (*Client, error) {
	token, err := auth.GetToken()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain Azure DevOps credential: %w", err)
	}
	return NewWithToken(orgURL, token), nil
}

// NewWithToken creates a client with an explicit credential. Used by tests
// and by callers that manage credentials themselves.
func NewWithToken(orgURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(orgURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the error envelope Azure DevOps returns for failed requests.
type apiError struct {
	Message string `json:"message"`
}

// doJSON executes an authenticated request with a JSON (or JSON Patch)
// body and decodes the JSON response into out. This is a helper method to
// avoid repeating the authorization and content-type setup.
func (c *Client) doJSON(ctx context.Context, method, path, contentType string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// setAuth picks the scheme for the credential in hand: az CLI access
// tokens are JWTs (dotted) and require Bearer, personal access tokens use
// Basic with an empty user name.
func (c *Client) setAuth(req *http.Request) {
	if strings.Count(c.token, ".") == 2 {
		req.Header.Set("Authorization", "Bearer "+c.token)
		return
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(":" + c.token))
	req.Header.Set("Authorization", "Basic "+encoded)
}
