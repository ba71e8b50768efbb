package handlers

import (
	"errors"
	"net/http"

	"github.com/stoiyeet/TravelShare/internal/membership"
	"github.com/stoiyeet/TravelShare/internal/repository"
	"github.com/stoiyeet/TravelShare/internal/service"
	"github.com/stoiyeet/TravelShare/internal/transport/http/middleware"
	"github.com/stoiyeet/TravelShare/pkg/validator"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.GroupInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := validator.ValidateGroupName(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	group, err := h.groupService.Create(r.Context(), userID, input)
	if err != nil {
		h.fail(w, "create group", err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := h.groupService.List(r.Context(), userID)
	if err != nil {
		h.fail(w, "list groups", err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	group, err := h.groupService.Get(r.Context(), userID, groupID)
	if err != nil {
		h.fail(w, "get group", err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	var input service.GroupInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := validator.ValidateGroupName(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	group, err := h.groupService.Update(r.Context(), userID, groupID, input)
	if err != nil {
		h.fail(w, "update group", err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), userID, groupID); err != nil {
		h.fail(w, "delete group", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	var candidate membership.Candidate
	if !decodeJSON(w, r, &candidate) {
		return
	}
	if candidate.Username == "" {
		writeValidationErrors(w, validator.ValidationErrors{"user": "Username is required"})
		return
	}

	group, err := h.groupService.AddMember(r.Context(), userID, groupID, candidate)
	if err != nil {
		h.fail(w, "add group member", err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "uid", "user")
	if !ok {
		return
	}

	group, err := h.groupService.RemoveMember(r.Context(), userID, groupID, memberID)
	if err != nil {
		h.fail(w, "remove group member", err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) SetMemberColor(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "uid", "user")
	if !ok {
		return
	}

	var body struct {
		Color string `json:"color"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	group, err := h.groupService.SetMemberColor(r.Context(), userID, groupID, memberID, body.Color)
	if err != nil {
		h.fail(w, "set member colour", err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) AvailableColors(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	colors, err := h.groupService.AvailableColors(r.Context(), userID, groupID)
	if err != nil {
		h.fail(w, "available colours", err)
		return
	}

	writeJSON(w, http.StatusOK, colors)
}

func (h *GroupHandler) Palette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.groupService.Palette())
}

func (h *GroupHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Group not found")
	case errors.Is(err, service.ErrNotGroupCreator):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the group creator can change it")
	case errors.Is(err, service.ErrGroupForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this group")
	case errors.Is(err, service.ErrGroupNameRequired):
		writeValidationErrors(w, validator.ValidationErrors{"name": "Group name is required"})
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, membership.ErrUnknownUser):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, membership.ErrNotMember):
		writeError(w, http.StatusNotFound, "NOT_MEMBER", "User is not a member of this group")
	case errors.Is(err, membership.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "ALREADY_MEMBER", "User is already a member")
	case errors.Is(err, membership.ErrCannotRemoveCreator):
		writeError(w, http.StatusBadRequest, "CANNOT_REMOVE_CREATOR", "The group creator cannot be removed")
	case errors.Is(err, membership.ErrColorTaken):
		writeError(w, http.StatusConflict, "COLOR_TAKEN", "That colour is already used in this group")
	case errors.Is(err, membership.ErrColorNotInPalette):
		writeValidationErrors(w, validator.ValidationErrors{"color": "Colour is not in the marker palette"})
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "The group was changed concurrently, try again")
	default:
		writeInternal(w, op, err)
	}
}
