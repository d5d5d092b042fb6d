package handlers

import (
	"net/http"

	"github.com/dimitrije/adme-site/internal/account"
	"github.com/dimitrije/adme-site/internal/forms"
	"github.com/dimitrije/adme-site/internal/middleware"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/sanitize"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type AccountHandler struct {
	sessions  *Sessions
	sanitizer *sanitize.Sanitizer
}

func NewAccountHandler(sessions *Sessions, sanitizer *sanitize.Sanitizer) *AccountHandler {
	return &AccountHandler{sessions: sessions, sanitizer: sanitizer}
}

// bootstrap opens the caller's account and loads it. It writes the response
// and returns nil when the caller is no longer signed in.
func (h *AccountHandler) bootstrap(c *drift.Context) *accountScope {
	session := middleware.GetSession(c)
	if session == nil {
		c.Unauthorized("not authenticated")
		return nil
	}

	scope := h.sessions.open(session, middleware.GetAccessToken(c))
	scope.sync.Bootstrap(c.Request.Context())

	st := scope.sync.State()
	if st.Phase == account.PhaseAnonymous {
		scope.Close()
		if st.Err != nil {
			respondError(c, st.Err, "session expired")
			return nil
		}
		c.Unauthorized("session expired")
		return nil
	}
	return scope
}

func (h *AccountHandler) Get(c *drift.Context) {
	scope := h.bootstrap(c)
	if scope == nil {
		return
	}
	defer scope.Close()

	st := scope.sync.State()
	if st.Phase == account.PhaseProfileError {
		_ = c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "authentication_error",
			Message: "We could not load your profile. Please try again or sign in again.",
		})
		return
	}

	_ = c.JSON(http.StatusOK, dto.AccountResponse{
		User:        dto.NewUserResponse(st.User),
		Profile:     dto.NewProfileResponse(st.Profile),
		DisplayName: models.DisplayName(st.User, st.Profile),
		IsAdmin:     st.Profile.HasAdminAccess(),
		Session:     scope.refreshed(),
	})
}

func (h *AccountHandler) UpdateProfile(c *drift.Context) {
	var req dto.UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	form := forms.Profile{
		FullName:    h.sanitizer.Pointer(req.FullName),
		CompanyName: h.sanitizer.Pointer(req.CompanyName),
		Phone:       h.sanitizer.Pointer(req.Phone),
		AvatarURL:   h.sanitizer.Pointer(req.AvatarURL),
	}
	if err := forms.Validate(form); err != nil {
		respondError(c, err, "invalid profile")
		return
	}

	update := models.ProfileUpdate{
		FullName:    form.FullName,
		CompanyName: form.CompanyName,
		Phone:       form.Phone,
		AvatarURL:   form.AvatarURL,
	}
	if update.IsEmpty() {
		c.BadRequest("no fields to update")
		return
	}

	scope := h.bootstrap(c)
	if scope == nil {
		return
	}
	defer scope.Close()

	profile, err := scope.sync.Update(c.Request.Context(), update)
	if err != nil {
		respondError(c, err, "Failed to update profile. Please try again.")
		return
	}

	_ = c.JSON(http.StatusOK, dto.AccountResponse{
		User:        dto.NewUserResponse(scope.sync.State().User),
		Profile:     dto.NewProfileResponse(profile),
		DisplayName: models.DisplayName(scope.sync.State().User, profile),
		IsAdmin:     profile.HasAdminAccess(),
		Session:     scope.refreshed(),
	})
}

// UpdatePassword sets a new password for the signed-in user. It also finishes
// a password reset, where the session comes from the recovery link.
func (h *AccountHandler) UpdatePassword(c *drift.Context) {
	var req dto.PasswordChangeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if err := forms.Validate(forms.NewPassword{Password: req.Password, ConfirmPassword: req.ConfirmPassword}); err != nil {
		respondError(c, err, "invalid password")
		return
	}

	session := middleware.GetSession(c)
	if session == nil {
		c.Unauthorized("not authenticated")
		return
	}

	scope := h.sessions.open(session, middleware.GetAccessToken(c))
	defer scope.Close()

	if _, err := scope.client.UpdatePassword(c.Request.Context(), req.Password); err != nil {
		respondError(c, err, "failed to update password")
		return
	}

	_ = c.JSON(http.StatusOK, dto.AuthResponse{
		User:    dto.NewUserResponse(scope.sync.State().User),
		Session: scope.refreshed(),
		Profile: dto.NewProfileResponse(scope.sync.State().Profile),
	})
}
