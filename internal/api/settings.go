package api

import (
	"net/http"
)

// GetSettings handles GET /api/settings.
//
//	@Summary		Read user preferences and lock state
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.journal.Settings(r.Context())
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		Theme:         st.Theme,
		HasCredential: st.CredentialHash != "",
		IsLocked:      st.CredentialHash != "" && st.IsLocked,
	})
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Change the theme
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SettingsRequest	true	"Settings"
//	@Success		200		{object}	SettingsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.journal.SetTheme(r.Context(), req.Theme)
	if err != nil {
		writeError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		Theme:         st.Theme,
		HasCredential: st.CredentialHash != "",
		IsLocked:      st.CredentialHash != "" && st.IsLocked,
	})
}

// Unlock handles POST /api/session/unlock.
//
//	@Summary		Exchange the passcode for a session token
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialRequest	true	"Passcode"
//	@Success		200		{object}	SessionResponse
//	@Failure		401		{object}	errResponse
//	@Failure		404		{object}	errResponse	"No passcode configured"
//	@Router			/session/unlock [post]
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.session.ValidateCredential(r.Context(), req.Secret)
	if err != nil {
		writeError(w, "unlock", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Token: token})
}

// Lock handles POST /api/session/lock.
//
//	@Summary		Lock the journal and drop the session token
//	@Tags			session
//	@Success		204
//	@Security		BearerAuth
//	@Router			/session/lock [post]
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Lock(r.Context()); err != nil {
		writeError(w, "lock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCredential handles PUT /api/session/credential.
//
//	@Summary		Set or replace the passcode; the journal locks afterwards
//	@Tags			session
//	@Accept			json
//	@Param			body	body	CredentialRequest	true	"Passcode"
//	@Success		204
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/credential [put]
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.SetCredential(r.Context(), req.Secret); err != nil {
		writeError(w, "set credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCredential handles DELETE /api/session/credential.
//
//	@Summary		Remove the passcode and unlock the journal
//	@Tags			session
//	@Success		204
//	@Security		BearerAuth
//	@Router			/session/credential [delete]
func (h *Handler) RemoveCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveCredential(r.Context()); err != nil {
		writeError(w, "remove credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
