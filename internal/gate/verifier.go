// internal/gate/verifier.go
package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Result is the payment verification endpoint's answer for one
// (session, funnel) pair.
type Result struct {
	Success bool `json:"success"`
	Paid    bool `json:"paid"`
}

// Verifier asks whether a session paid for a funnel.
type Verifier interface {
	Verify(ctx context.Context, sessionID, funnel string) (Result, error)
}

// HTTPVerifier calls the check-payment endpoint. The client carries an
// explicit timeout; a hanging verification must not hang the gate.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, sessionID, funnel string) (Result, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)
	query.Set("funnel_type", funnel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating verification request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("executing verification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("verification endpoint returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("parsing verification response: %w", err)
	}

	return result, nil
}
