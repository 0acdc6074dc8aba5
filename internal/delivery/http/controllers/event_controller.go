package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// CalendarEncoder renders events as an iCalendar document.
type CalendarEncoder interface {
	Encode(events []*domain.EventView, stamp time.Time) string
}

// CreateEventRequest is the request body for POST /api/events.
// Profiles holds profile ids; instants are RFC 3339 strings.
type CreateEventRequest struct {
	Profiles      []string `json:"profiles"`
	Timezone      string   `json:"timezone"`
	StartDateTime string   `json:"startDateTime"`
	EndDateTime   string   `json:"endDateTime"`
}

// Validate implements Validator. Temporal order and profile existence are checked by the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if len(c.Profiles) == 0 {
		errs = append(errs, domain.MsgProfilesRequired)
	} else if _, ok := helpers.CanonicalIDs(c.Profiles); !ok {
		errs = append(errs, domain.MsgInvalidID)
	}
	if strings.TrimSpace(c.Timezone) == "" {
		errs = append(errs, domain.MsgTimezoneRequired)
	}
	if c.StartDateTime == "" || c.EndDateTime == "" {
		errs = append(errs, domain.MsgDateTimeRequired)
	} else if !parses(c.StartDateTime) || !parses(c.EndDateTime) {
		errs = append(errs, domain.MsgInvalidDateTime)
	}
	return errs
}

// toEvent must only be called after Validate succeeded.
func (c CreateEventRequest) toEvent() *domain.Event {
	ids, _ := helpers.CanonicalIDs(c.Profiles)
	start, _ := domain.ParseInstant(c.StartDateTime)
	end, _ := domain.ParseInstant(c.EndDateTime)
	return domain.NewEvent(ids, c.Timezone, start, end, time.Time{}, time.Time{})
}

// UpdateEventRequest is the request body for PUT and PATCH /api/events/{eventID}.
// Omitted fields are left untouched.
type UpdateEventRequest struct {
	Profiles      *[]string `json:"profiles"`
	Timezone      *string   `json:"timezone"`
	StartDateTime *string   `json:"startDateTime"`
	EndDateTime   *string   `json:"endDateTime"`
}

// Validate implements Validator.
func (c UpdateEventRequest) Validate() []string {
	var errs []string
	if c.Profiles != nil {
		if len(*c.Profiles) == 0 {
			errs = append(errs, domain.MsgProfilesRequired)
		} else if _, ok := helpers.CanonicalIDs(*c.Profiles); !ok {
			errs = append(errs, domain.MsgInvalidID)
		}
	}
	if c.Timezone != nil && strings.TrimSpace(*c.Timezone) == "" {
		errs = append(errs, domain.MsgTimezoneRequired)
	}
	if (c.StartDateTime != nil && !parses(*c.StartDateTime)) || (c.EndDateTime != nil && !parses(*c.EndDateTime)) {
		errs = append(errs, domain.MsgInvalidDateTime)
	}
	return errs
}

// toUpdate must only be called after Validate succeeded.
func (c UpdateEventRequest) toUpdate() domain.EventUpdate {
	update := domain.EventUpdate{Timezone: c.Timezone}
	if c.Profiles != nil {
		ids, _ := helpers.CanonicalIDs(*c.Profiles)
		update.ProfileIDs = &ids
	}
	if c.StartDateTime != nil {
		t, _ := domain.ParseInstant(*c.StartDateTime)
		update.StartDateTime = &t
	}
	if c.EndDateTime != nil {
		t, _ := domain.ParseInstant(*c.EndDateTime)
		update.EndDateTime = &t
	}
	return update
}

// EventSuccessResponse is the success response envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.EventView `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsSuccessResponse is the success response envelope for GET /api/events (200).
type ListEventsSuccessResponse struct {
	Data  []*domain.EventView `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ListEventLogsSuccessResponse is the success response envelope for GET /api/events/{eventID}/logs (200).
type ListEventLogsSuccessResponse struct {
	Data  []*domain.ChangeLogEntry `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

type EventController struct {
	Logger   *slog.Logger
	Service  domain.EventService
	Calendar CalendarEncoder
}

func NewEventController(logger *slog.Logger, svc domain.EventService, calendar CalendarEncoder) *EventController {
	return &EventController{
		Logger:   logger,
		Service:  svc,
		Calendar: calendar,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Returns events newest first. With profileIds, only events referencing any of the given profiles are returned.
// @Tags events
// @Produce json
// @Param profileIds query string false "Comma-separated profile ids; the parameter may also be repeated"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains the events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListEvents(r.Context(), filter)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns the event with its profile names resolved.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Create an event for one or more existing profiles. End must be strictly after start.
// @Tags events
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), req.toEvent())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially update an event. Only supplied fields are considered; fields whose value actually changes are recorded in the event's change log. An update that changes nothing writes nothing.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param event body UpdateEventRequest true "Fields to update"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [put]
// @Router /api/events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, req.toUpdate())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListEventLogs godoc
// @Summary List an event's change log
// @Description Returns the change log entries for the event, newest first.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListEventLogsSuccessResponse "data contains the change log entries"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID}/logs [get]
func (c *EventController) ListEventLogs(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	entries, err := c.Service.ListChanges(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entries)
}

// ExportCalendar godoc
// @Summary Export events as iCalendar
// @Description Returns the filtered event list as a text/calendar document.
// @Tags events
// @Produce text/calendar
// @Param profileIds query string false "Comma-separated profile ids; the parameter may also be repeated"
// @Success 200 {string} string "iCalendar document"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/calendar.ics [get]
func (c *EventController) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListEvents(r.Context(), filter)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeCalendar(w, "events.ics", events)
}

// ExportEventCalendar godoc
// @Summary Export one event as iCalendar
// @Tags events
// @Produce text/calendar
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} string "iCalendar document"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID}/calendar.ics [get]
func (c *EventController) ExportEventCalendar(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeCalendar(w, eventID+".ics", []*domain.EventView{event})
}

func (c *EventController) writeCalendar(w http.ResponseWriter, filename string, events []*domain.EventView) {
	body := c.Calendar.Encode(events, time.Now().UTC())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// writeError maps a service error onto the response. Only internal errors are logged.
func (c *EventController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := helpers.StatusForError(err)
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		msg = domain.MsgEventNotFound
	case status == http.StatusInternalServerError:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteJSONError(w, status, code, msg)
}

func pathEventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", false
	}
	id, ok := helpers.CanonicalID(eventID)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, domain.MsgInvalidID)
		return "", false
	}
	return id, true
}

func parseFilter(w http.ResponseWriter, r *http.Request) (domain.EventFilter, bool) {
	ids, invalid := helpers.ParseIDList(r, "profileIds")
	if invalid != "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, domain.MsgInvalidID)
		return domain.EventFilter{}, false
	}
	return domain.EventFilter{ProfileIDs: ids}, true
}

func parses(s string) bool {
	_, err := domain.ParseInstant(s)
	return err == nil
}
