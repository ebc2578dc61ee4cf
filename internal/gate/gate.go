// internal/gate/gate.go
package gate

import (
	"fmt"
	"net/http"

	"funnelgate/internal/logger"
	"funnelgate/internal/metrics"
)

// State is where a request stands in the gate's decision flow. Every
// request starts Verifying and ends Granted or Denied; protected content
// is never written before the terminal state is reached.
type State int

const (
	StateVerifying State = iota
	StateGranted
	StateDenied
)

// Denial reasons shown to the visitor.
const (
	ReasonPaymentRequired   = "Payment is required for this funnel."
	ReasonFunnelMismatch    = "This payment does not cover this funnel."
	ReasonVerifyUnavailable = "We could not verify your payment. Please try again."
)

// Decision is computed fresh for every request and every funnel; a
// decision for one funnel never grants access to another.
type Decision struct {
	State  State
	Reason string
}

// Gate guards paid funnel content. It captures the session identifier
// from the URL, persists it, scrubs the visible URL, and verifies payment
// once per request before serving the wrapped handler.
type Gate struct {
	store       Store
	verifier    Verifier
	param       string
	redirectURL string
	metrics     *metrics.Metrics
}

func New(store Store, verifier Verifier, param, redirectURL string, m *metrics.Metrics) *Gate {
	return &Gate{
		store:       store,
		verifier:    verifier,
		param:       param,
		redirectURL: redirectURL,
		metrics:     m,
	}
}

// Protect wraps next so it is only reachable when the current session
// paid for the given funnel.
func (g *Gate) Protect(funnel string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A session identifier arriving in the URL is persisted and then
		// scrubbed from the visible location before anything else happens,
		// so reloading or sharing the URL cannot re-process it.
		if sessionID, ok := ExtractSessionID(r.URL.String(), g.param); ok {
			if err := g.store.Set(w, r, sessionID); err != nil {
				// Redirecting here would lose the identifier and turn a store
				// outage into a "payment required" denial on the follow-up.
				logger.LogError("Failed to persist session identifier: %v", err)
				g.metrics.RecordDecision("denied")
				g.renderDenial(w, ReasonVerifyUnavailable)
				return
			}
			http.Redirect(w, r, ScrubURL(r.URL.String(), g.param), http.StatusSeeOther)
			return
		}

		decision := g.evaluate(r, funnel)

		switch decision.State {
		case StateGranted:
			g.metrics.RecordDecision("granted")
			next.ServeHTTP(w, r)
		default:
			g.metrics.RecordDecision("denied")
			g.renderDenial(w, decision.Reason)
		}
	})
}

// evaluate runs the Verifying -> Granted|Denied transition for one
// request. At most one verification round-trip happens here; with no
// stored identifier, none does.
func (g *Gate) evaluate(r *http.Request, funnel string) Decision {
	sessionID, ok := g.store.Get(r)
	if !ok {
		return Decision{State: StateDenied, Reason: ReasonPaymentRequired}
	}

	result, err := g.verifier.Verify(r.Context(), sessionID, funnel)
	if err != nil {
		logger.LogError("Verification failed for session %s funnel %s: %v", sessionID, funnel, err)
		return Decision{State: StateDenied, Reason: ReasonVerifyUnavailable}
	}
	if !result.Success {
		return Decision{State: StateDenied, Reason: ReasonVerifyUnavailable}
	}
	if !result.Paid {
		return Decision{State: StateDenied, Reason: ReasonFunnelMismatch}
	}

	return Decision{State: StateGranted}
}

func (g *Gate) renderDenial(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusPaymentRequired)
	fmt.Fprintf(w, `
		<html><body>
			<h1>Access Restricted</h1>
			<p>%s</p>
			<a href="%s">Purchase access</a>
		</body></html>
	`, reason, g.redirectURL)
}
