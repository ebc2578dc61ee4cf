// internal/checkout/handler.go
package checkout

import (
	"context"
	"net/http"

	"funnelgate/internal/config"
	"funnelgate/internal/data"
	"funnelgate/internal/email"
	"funnelgate/internal/logger"
	"funnelgate/internal/metrics"
	"funnelgate/internal/middleware"
	"funnelgate/internal/payment"
)

// Handler serves the checkout backend endpoints.
type Handler struct {
	provider payment.Service
	db       *data.DB
	mailer   email.Sender
	metrics  *metrics.Metrics
	cfg      config.ProviderConfig
	notify   bool
	funnel   string // default funnel when the request names none
}

func NewHandler(provider payment.Service, db *data.DB, mailer email.Sender,
	m *metrics.Metrics, cfg *config.Config) *Handler {
	return &Handler{
		provider: provider,
		db:       db,
		mailer:   mailer,
		metrics:  m,
		cfg:      cfg.Provider,
		notify:   cfg.Email.AdminNotification,
		funnel:   cfg.Gate.DefaultFunnel,
	}
}

type createSessionRequest struct {
	Products   []CartItem `json:"products"`
	FunnelType string     `json:"funnel_type,omitempty"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type checkPaymentResponse struct {
	Success bool `json:"success"`
	Paid    bool `json:"paid"`
}

// CreateSession handles POST /api/create-checkout-session. The whole cart
// either produces one session or no session; provider failures surface as
// a generic server error carrying the underlying message.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid JSON request", err.Error())
		return
	}

	funnel := req.FunnelType
	if funnel == "" {
		funnel = h.funnel
	}

	input := payment.CreateSessionInput{
		LineItems:  BuildLineItems(req.Products, h.cfg.Currency),
		SuccessURL: h.cfg.SuccessURL,
		CancelURL:  h.cfg.CancelURL,
		Funnel:     funnel,
	}

	session, err := h.provider.CreateSession(r.Context(), input)
	if err != nil {
		logger.LogError("Checkout session creation failed: %v", err)
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, err.Error(), "")
		return
	}

	h.metrics.CheckoutSessionsCreated.Inc()
	clientIP := logger.GetClientIP(r)

	// Local record and admin notification are side effects; neither may
	// fail the request once the provider has a session.
	if err := h.db.InsertSessionRecord(r.Context(), data.SessionRecord{
		SessionID:   session.ID,
		Funnel:      funnel,
		AmountTotal: session.AmountTotal,
		ItemCount:   len(req.Products),
		ClientIP:    clientIP,
	}); err != nil {
		logger.LogError("Failed to record checkout session %s: %v", session.ID, err)
	}

	h.notifyAdmin(r.Context(), session, funnel, len(req.Products), clientIP)

	middleware.WriteJSON(w, createSessionResponse{ID: session.ID})
}

func (h *Handler) notifyAdmin(ctx context.Context, session *payment.Session, funnel string, itemCount int, clientIP string) {
	if !h.notify {
		return
	}
	if middleware.IsAutomatedClient(ctx) {
		logger.LogInfo("Automated client detected, skipping admin notification for %s", session.ID)
		return
	}

	msg := email.NewSessionNotification(session.ID, funnel, session.AmountTotal, itemCount, clientIP)
	if err := h.mailer.Send(msg); err != nil {
		logger.LogError("Admin notification failed for %s: %v", session.ID, err)
	}
}

// CheckPayment handles GET /api/check-payment. It reports whether the
// given session paid for the given funnel. Provider failures map to
// {success:false, paid:false}; the gate turns that into its
// "verification unavailable" denial.
func (h *Handler) CheckPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	funnel := r.URL.Query().Get("funnel_type")
	if sessionID == "" {
		middleware.WriteJSON(w, checkPaymentResponse{Success: false, Paid: false})
		return
	}
	if funnel == "" {
		funnel = h.funnel
	}

	session, err := h.provider.GetSession(r.Context(), sessionID)
	if err != nil {
		logger.LogError("Payment check failed for session %s: %v", sessionID, err)
		middleware.WriteJSON(w, checkPaymentResponse{Success: false, Paid: false})
		return
	}

	paid := session.Paid && session.Funnel == funnel

	outcome := "denied"
	if paid {
		outcome = "granted"
	}
	if err := h.db.InsertAccessEntry(r.Context(), data.AccessEntry{
		SessionID: sessionID,
		Funnel:    funnel,
		Outcome:   outcome,
		Reason:    "payment check",
	}); err != nil {
		logger.LogError("Failed to record payment check for %s: %v", sessionID, err)
	}

	middleware.WriteJSON(w, checkPaymentResponse{Success: true, Paid: paid})
}
