package gate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnelgate/internal/metrics"
)

// fakeVerifier records calls and returns a scripted answer.
type fakeVerifier struct {
	result  Result
	err     error
	calls   int
	funnels []string
}

func (f *fakeVerifier) Verify(ctx context.Context, sessionID, funnel string) (Result, error) {
	f.calls++
	f.funnels = append(f.funnels, funnel)
	return f.result, f.err
}

var metricsInstance = metrics.New() // promauto registers globally; share one

func newTestGate(verifier Verifier) *Gate {
	return New(NewCookieStore("fg_session"), verifier, "session_id", "/pricing", metricsInstance)
}

func protectedBody() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("protected results"))
	})
}

func TestGateCapturesSessionFromQuery(t *testing.T) {
	verifier := &fakeVerifier{}
	handler := newTestGate(verifier).Protect("assessment", protectedBody())

	req := httptest.NewRequest(http.MethodGet, "/results?session_id=abc&utm_source=ad", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)

	location := rec.Header().Get("Location")
	assert.NotContains(t, location, "session_id")
	assert.Contains(t, location, "utm_source=ad")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "fg_session", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)

	// capture redirects before any verification happens
	assert.Zero(t, verifier.calls)
}

func TestGateCapturesSessionFromFragment(t *testing.T) {
	verifier := &fakeVerifier{}
	handler := newTestGate(verifier).Protect("assessment", protectedBody())

	req := httptest.NewRequest(http.MethodGet, "/results#section?session_id=abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.NotContains(t, rec.Header().Get("Location"), "session_id")
}

func TestGateDeniesWithoutSessionAndWithoutNetworkCall(t *testing.T) {
	verifier := &fakeVerifier{result: Result{Success: true, Paid: true}}
	handler := newTestGate(verifier).Protect("assessment", protectedBody())

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), ReasonPaymentRequired)
	assert.Contains(t, rec.Body.String(), "/pricing")
	assert.Zero(t, verifier.calls, "no verification round-trip without a session identifier")
	assert.NotContains(t, rec.Body.String(), "protected results")
}

func withStoredSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "fg_session", Value: "cs_abc"})
	return req
}

func TestGateGrantsWhenPaid(t *testing.T) {
	verifier := &fakeVerifier{result: Result{Success: true, Paid: true}}
	handler := newTestGate(verifier).Protect("assessment", protectedBody())

	req := withStoredSession(httptest.NewRequest(http.MethodGet, "/results", nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected results", rec.Body.String())
	assert.Equal(t, 1, verifier.calls, "exactly one verification round-trip")
}

func TestGateDeniesWhenNotPaid(t *testing.T) {
	verifier := &fakeVerifier{result: Result{Success: true, Paid: false}}
	handler := newTestGate(verifier).Protect("assessment", protectedBody())

	req := withStoredSession(httptest.NewRequest(http.MethodGet, "/results", nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), ReasonFunnelMismatch)
	assert.NotContains(t, rec.Body.String(), "protected results")
}

func TestGateDeniesOnVerifierError(t *testing.T) {
	verifier := &fakeVerifier{err: fmt.Errorf("connection refused")}
	handler := newTestGate(verifier).Protect("assessment", protectedBody())

	req := withStoredSession(httptest.NewRequest(http.MethodGet, "/results", nil))
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, req)
	})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), ReasonVerifyUnavailable)
}

func TestGateDeniesOnUnsuccessfulVerification(t *testing.T) {
	verifier := &fakeVerifier{result: Result{Success: false, Paid: false}}
	handler := newTestGate(verifier).Protect("assessment", protectedBody())

	req := withStoredSession(httptest.NewRequest(http.MethodGet, "/results", nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), ReasonVerifyUnavailable)
}

func TestGateReverifiesPerFunnel(t *testing.T) {
	verifier := &fakeVerifier{result: Result{Success: true, Paid: true}}
	g := newTestGate(verifier)

	for _, funnel := range []string{"assessment", "metabolic-reset"} {
		req := withStoredSession(httptest.NewRequest(http.MethodGet, "/results", nil))
		rec := httptest.NewRecorder()
		g.Protect(funnel, protectedBody()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// a decision for one funnel is never reused for another
	assert.Equal(t, 2, verifier.calls)
	assert.Equal(t, []string{"assessment", "metabolic-reset"}, verifier.funnels)
}

// failingStore rejects every write, as a backing store outage would.
type failingStore struct{}

func (failingStore) Get(r *http.Request) (string, bool) { return "", false }
func (failingStore) Set(w http.ResponseWriter, r *http.Request, sessionID string) error {
	return fmt.Errorf("store unavailable")
}

func TestGateRendersRetryableDenialWhenStoreFails(t *testing.T) {
	verifier := &fakeVerifier{result: Result{Success: true, Paid: true}}
	g := New(failingStore{}, verifier, "session_id", "/pricing", metricsInstance)
	handler := g.Protect("assessment", protectedBody())

	req := httptest.NewRequest(http.MethodGet, "/results?session_id=cs_paid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// no redirect: the identifier was not persisted, and the follow-up
	// would land on the payment-required denial for a paid visitor
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), ReasonVerifyUnavailable)
	assert.Zero(t, verifier.calls)
}

func TestCookieStoreRoundTrip(t *testing.T) {
	store := NewCookieStore("fg_session")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, store.Set(rec, req, "cs_123"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 0, cookies[0].MaxAge, "session-scoped, no TTL")

	followup := httptest.NewRequest(http.MethodGet, "/", nil)
	followup.AddCookie(cookies[0])
	id, ok := store.Get(followup)
	assert.True(t, ok)
	assert.Equal(t, "cs_123", id)
}
