package httpapi

import (
	"errors"
	"net/http"

	"projectguard.org/internal/account"
	"projectguard.org/internal/audit"
	"projectguard.org/internal/obs"
	"projectguard.org/internal/telegram"
)

type authResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// handleTelegramAuth turns a Telegram login-widget claim into a session
// token. Steps run in order and short-circuit: shape validation,
// authenticity verification, account resolution, token issuance. Failures
// are terminal for the attempt; nothing here retries.
func (a *API) handleTelegramAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var claim telegram.Claim
	if err := decodeJSON(w, r, &claim); err != nil {
		obs.ObserveAuthAttempt("invalid")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := a.verifier.Verify(claim)
	if err != nil {
		a.handleAuthError(w, r, claim, err)
		return
	}

	acct, err := a.resolver.Resolve(r.Context(), identity)
	if err != nil {
		a.handleAuthError(w, r, claim, err)
		return
	}

	token, expiresAt, err := a.sessions.Issue(acct.ID, string(acct.Role))
	if err != nil {
		obs.ObserveAuthAttempt("unavailable")
		writeError(w, r, http.StatusServiceUnavailable, "session issuance unavailable")
		return
	}

	obs.ObserveAuthAttempt("issued")
	_ = audit.LogEvent(r.Context(), "auth.login.issued", map[string]any{
		"tg_id":      identity.TelegramID,
		"role":       acct.Role,
		"expires_at": expiresAt,
	})

	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		Role:  string(acct.Role),
	})
}

// handleAuthError maps the error taxonomy onto status codes: client shape
// faults are 400, authenticity failures 401, storage problems 503. The
// response never carries secrets, computed tags or internal ids.
func (a *API) handleAuthError(w http.ResponseWriter, r *http.Request, claim telegram.Claim, err error) {
	switch {
	case errors.Is(err, telegram.ErrInvalidClaim):
		obs.ObserveAuthAttempt("invalid")
		writeError(w, r, http.StatusBadRequest, "id must be a positive integer")
	case errors.Is(err, telegram.ErrMissingProof):
		a.denied(w, r, claim, "integrity proof missing or malformed")
	case errors.Is(err, telegram.ErrTagMismatch):
		a.denied(w, r, claim, "integrity check failed")
	case errors.Is(err, telegram.ErrStale):
		a.denied(w, r, claim, "login is too old, sign in again")
	case errors.Is(err, account.ErrUnavailable):
		obs.ObserveAuthAttempt("unavailable")
		writeError(w, r, http.StatusServiceUnavailable, "account storage unavailable")
	default:
		obs.ObserveAuthAttempt("unavailable")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) denied(w http.ResponseWriter, r *http.Request, claim telegram.Claim, msg string) {
	obs.ObserveAuthAttempt("denied")
	_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{
		"tg_id":  claim.ID,
		"reason": msg,
	})
	writeError(w, r, http.StatusUnauthorized, msg)
}
