// Package backup is the adapter for the upstream identity service that
// issues agent backup tokens. A backup token is the long-lived credential
// an agent exchanges here for a session token.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// The three failure modes callers must distinguish: a rejected credential
// is a client error, an unreachable or broken upstream is a dependency
// error, and a suspended agent is a policy rejection despite a valid call.
var (
	ErrTokenRejected = errors.New("backup token rejected")
	ErrSuspended     = errors.New("agent suspended on backup service")
	ErrUnavailable   = errors.New("backup service unavailable")
)

// Agent is the canonical profile returned by the backup service.
type Agent struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
}

// Verifier validates a backup token and returns the agent it belongs to.
type Verifier interface {
	VerifyBackupToken(ctx context.Context, backupToken string) (*Agent, error)
}

// Client calls the backup service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a backup service client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// VerifyBackupToken presents the token as a bearer credential to the backup
// service. Upstream 401/403 map to ErrTokenRejected; any other failure,
// network errors included, maps to ErrUnavailable and is not retried here.
func (c *Client) VerifyBackupToken(ctx context.Context, backupToken string) (*Agent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/agents/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+backupToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrTokenRejected
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var agent Agent
	if err := json.NewDecoder(resp.Body).Decode(&agent); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	// The HTTP call succeeded, but the upstream status field is still
	// authoritative for suspension.
	if agent.Status != "" && agent.Status != "active" {
		return nil, ErrSuspended
	}

	return &agent, nil
}
