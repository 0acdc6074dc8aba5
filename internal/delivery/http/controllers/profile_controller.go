package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// CreateProfileRequest is the request body for POST /api/profiles.
type CreateProfileRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (c CreateProfileRequest) Validate() []string {
	if strings.TrimSpace(c.Name) == "" {
		return []string{domain.MsgProfileNameRequired}
	}
	return nil
}

// ProfileSuccessResponse is the success response envelope for POST /api/profiles (201).
type ProfileSuccessResponse struct {
	Data  *domain.Profile   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListProfilesSuccessResponse is the success response envelope for GET /api/profiles (200).
type ListProfilesSuccessResponse struct {
	Data  []*domain.Profile `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type ProfileController struct {
	Logger  *slog.Logger
	Service domain.ProfileService
}

func NewProfileController(logger *slog.Logger, svc domain.ProfileService) *ProfileController {
	return &ProfileController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateProfile godoc
// @Summary Create a profile
// @Description Create a uniquely named profile. The name is trimmed before the uniqueness check.
// @Tags profiles
// @Accept json
// @Produce json
// @Param profile body CreateProfileRequest true "Profile name"
// @Success 201 {object} controllers.ProfileSuccessResponse "data contains the created profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/profiles [post]
func (c *ProfileController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	profile, err := c.Service.CreateProfile(r.Context(), req.Name)
	if err != nil {
		status, code := helpers.StatusForError(err)
		msg := err.Error()
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			msg = domain.MsgProfileDuplicate
		case status == http.StatusInternalServerError:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		}
		helpers.WriteJSONError(w, status, code, msg)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, profile)
}

// ListProfiles godoc
// @Summary List profiles
// @Description Returns every profile, newest first.
// @Tags profiles
// @Produce json
// @Success 200 {object} controllers.ListProfilesSuccessResponse "data contains the profiles"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/profiles [get]
func (c *ProfileController) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.Service.ListProfiles(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profiles)
}
