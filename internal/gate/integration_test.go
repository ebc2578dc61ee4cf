package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full flow against a live verification endpoint: capture from the URL,
// scrub, then verify on the follow-up request.
func TestGateFlowAgainstVerificationEndpoint(t *testing.T) {
	paidSessions := map[string]string{
		"cs_paid": "assessment",
	}

	verifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		funnel := r.URL.Query().Get("funnel_type")
		paidFunnel, ok := paidSessions[sessionID]
		w.Header().Set("Content-Type", "application/json")
		if ok && paidFunnel == funnel {
			w.Write([]byte(`{"success":true,"paid":true}`))
		} else {
			w.Write([]byte(`{"success":true,"paid":false}`))
		}
	}))
	defer verifyServer.Close()

	verifier := NewHTTPVerifier(verifyServer.URL, 5*time.Second)
	g := New(NewCookieStore("fg_session"), verifier, "session_id", "/pricing", metricsInstance)
	handler := g.Protect("assessment", protectedBody())

	// 1. provider redirect lands with the session identifier in the URL
	req := httptest.NewRequest(http.MethodGet, "/funnels/assessment/results?session_id=cs_paid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/funnels/assessment/results", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	// 2. the follow-up request carries the stored identifier and is granted
	followup := httptest.NewRequest(http.MethodGet, rec.Header().Get("Location"), nil)
	followup.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, followup)

	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "protected results", rec2.Body.String())

	// 3. the same session does not unlock a different funnel
	other := httptest.NewRequest(http.MethodGet, "/funnels/metabolic-reset/results", nil)
	other.AddCookie(cookies[0])
	rec3 := httptest.NewRecorder()
	g.Protect("metabolic-reset", protectedBody()).ServeHTTP(rec3, other)

	assert.Equal(t, http.StatusPaymentRequired, rec3.Code)
	assert.Contains(t, rec3.Body.String(), ReasonFunnelMismatch)
}
