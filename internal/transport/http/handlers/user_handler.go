package handlers

import (
	"errors"
	"net/http"

	"github.com/stoiyeet/TravelShare/internal/service"
	"github.com/stoiyeet/TravelShare/internal/transport/http/middleware"
	"github.com/stoiyeet/TravelShare/pkg/validator"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, "get me", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.fail(w, "list users", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	avatar := ""
	if input.Avatar != nil {
		avatar = *input.Avatar
	}
	if errs := validator.ValidateProfile(input.Username, avatar); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		h.fail(w, "update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var input service.PasswordInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidatePasswordChange(input.CurrentPassword, input.NewPassword); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), middleware.GetUserID(r.Context()), input); err != nil {
		h.fail(w, "update password", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (h *UserHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username is already taken")
	case errors.Is(err, service.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Current password is incorrect")
	default:
		writeInternal(w, op, err)
	}
}
