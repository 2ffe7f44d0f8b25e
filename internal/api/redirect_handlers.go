package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jbattja/fugata-sub001/internal/api/middleware"
	"github.com/jbattja/fugata-sub001/internal/api/presenter"
	"github.com/jbattja/fugata-sub001/internal/audit"
	"github.com/jbattja/fugata-sub001/internal/bridge"
	"github.com/jbattja/fugata-sub001/internal/core"
)

// encryptedActionField is the field name partners and checkout pages use to
// hand the encrypted action back to us, in JSON bodies and form posts alike.
const encryptedActionField = "encryptedAction"

type ActionResponse struct {
	Action *core.RedirectAction `json:"action"`
}

type EnvelopeResponse struct {
	EncryptedAction string `json:"encryptedAction"`
}

type DecryptPayload struct {
	EncryptedAction string `json:"encryptedAction"`
}

type EncryptPayload struct {
	Action *core.RedirectAction `json:"action"`
}

// handleFetchAction looks up the pending redirect action for a payment and
// returns it in the clear. Meant for trusted checkout frontends rendering
// the action themselves.
func (s *Server) handleFetchAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)
	paymentID := r.PathValue("paymentId")

	action, err := s.newBridge().ResolveByPaymentID(ctx, paymentID)
	s.auditBridge(ctx, "redirect.fetch", paymentID, err)
	if err != nil {
		logger.Warn().Err(err).Str("payment_id", paymentID).Msg("fetching redirect action failed")
		presenter.Err(w, r, err, "fetching redirect action failed")
		return
	}

	presenter.JSON(w, r, ActionResponse{Action: action}, http.StatusOK)
}

// handleDecryptAction opens a supplied envelope and returns the action in the
// clear. Accepts a JSON body or a form post, since partners POST back with
// whatever encoding their gateway uses.
func (s *Server) handleDecryptAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	envelope, err := envelopeFromRequest(r)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to decode decrypt request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	action, err := s.newBridge().ResolveEnvelope(ctx, envelope)
	if err != nil {
		s.auditBridge(ctx, "redirect.decrypt", "", err)
		logger.Warn().Err(err).Msg("decrypting redirect action failed")
		presenter.Err(w, r, err, "decrypting redirect action failed")
		return
	}
	s.auditBridge(ctx, "redirect.decrypt", action.PaymentID, nil)

	presenter.JSON(w, r, ActionResponse{Action: action}, http.StatusOK)
}

// handleNavigate is the shopper-facing entry: the browser arrives with only a
// payment id and leaves via the partner redirect, exactly once.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paymentID := r.PathValue("paymentId")

	b := s.newBridge()
	action, err := b.ResolveByPaymentID(ctx, paymentID)
	if err != nil {
		s.auditBridge(ctx, "redirect.navigate", paymentID, err)
		s.renderBridgeError(w, r, err)
		return
	}
	s.executeAndRender(w, r, b, action)
}

// handlePartnerReturn is the partner-facing entry: a POST-back carrying an
// encrypted action, typically the "return to shop" leg of a payment flow.
func (s *Server) handlePartnerReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	envelope, err := envelopeFromRequest(r)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to decode partner return payload")
		renderErrorPage(w, r, "This redirect link is invalid or has expired.", http.StatusBadRequest)
		return
	}

	b := s.newBridge()
	action, err := b.ResolveEnvelope(ctx, envelope)
	if err != nil {
		s.auditBridge(ctx, "redirect.navigate", "", err)
		s.renderBridgeError(w, r, err)
		return
	}
	s.executeAndRender(w, r, b, action)
}

// handleEncryptAction seals a redirect action into an envelope. Requires a
// service credential with payments:write; reachable only behind
// RequireCredential.
func (s *Server) handleEncryptAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)
	principal := middleware.PrincipalCtx(ctx)

	var payload EncryptPayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode encrypt request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Action == nil {
		presenter.Error(w, r, "action is required", http.StatusBadRequest)
		return
	}

	envelope, err := s.codec.Encrypt(payload.Action)
	if err != nil {
		logger.Warn().Err(err).Msg("encrypting redirect action failed")
		presenter.Err(w, r, err, "encrypting redirect action failed")
		return
	}

	reqID, _ := ctx.Value("correlation_id").(string)
	entry := core.AuditEntry{
		ID:          reqID,
		Time:        time.Now(),
		Action:      "redirect.encrypt",
		PaymentID:   payload.Action.PaymentID,
		Fingerprint: audit.CalculateFingerprint(audit.EnvelopeFingerprintType, envelope),
		Success:     true,
	}
	if principal != nil {
		entry.PrincipalID = principal.ID
		entry.PrincipalKind = string(principal.Kind)
	}
	if err := s.auditor.Log(entry); err != nil {
		logger.Error().Err(err).Msg("failed to write audit log")
	}

	presenter.JSON(w, r, EnvelopeResponse{EncryptedAction: envelope}, http.StatusOK)
}

// executeAndRender performs the navigation leg shared by both bridge entries.
func (s *Server) executeAndRender(w http.ResponseWriter, r *http.Request, b *bridge.Bridge, action *core.RedirectAction) {
	ctx := r.Context()

	err := b.Execute(ctx, action, &htmlNavigator{w: w, r: r})
	s.auditBridge(ctx, "redirect.navigate", action.PaymentID, err)
	if err != nil {
		s.renderBridgeError(w, r, err)
		return
	}

	log.Ctx(ctx).Info().
		Str("payment_id", action.PaymentID).
		Str("method", string(action.Method)).
		Msg("shopper navigated to partner")
}

func envelopeFromRequest(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		if v := r.PostFormValue(encryptedActionField); v != "" {
			return v, nil
		}
		return "", errors.New("missing encryptedAction field")
	}

	var payload DecryptPayload
	if err := DecodePayload(r, &payload, false); err != nil {
		return "", err
	}
	if payload.EncryptedAction == "" {
		return "", errors.New("missing encryptedAction field")
	}
	return payload.EncryptedAction, nil
}

// renderBridgeError maps a bridge failure to a shopper-safe terminal page.
// Causes and internals stay in the logs.
func (s *Server) renderBridgeError(w http.ResponseWriter, r *http.Request, err error) {
	log.Ctx(r.Context()).Warn().Err(err).Msg("bridge navigation failed")

	msg := "Something went wrong while processing your redirect."
	switch {
	case errors.Is(err, core.ErrNotFound):
		msg = "We could not find a pending redirect for this payment."
	case errors.Is(err, core.ErrActionConsumed):
		msg = "This redirect has already been completed."
	case errors.Is(err, core.ErrDecrypt), errors.Is(err, core.ErrValidation):
		msg = "This redirect link is invalid or has expired."
	}
	renderErrorPage(w, r, msg, presenter.StatusFor(err))
}

// auditBridge writes an audit entry for a bridge-surface request.
func (s *Server) auditBridge(ctx context.Context, action, paymentID string, opErr error) {
	reqID, _ := ctx.Value("correlation_id").(string)
	entry := core.AuditEntry{
		ID:        reqID,
		Time:      time.Now(),
		Action:    action,
		PaymentID: paymentID,
		Success:   opErr == nil,
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	if err := s.auditor.Log(entry); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to write audit log")
	}
}
