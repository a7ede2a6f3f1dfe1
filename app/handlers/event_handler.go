package handlers

import (
	"log/slog"

	"github.com/amirphl/partyline/app/dto"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type EventHandlerInterface interface {
	ListEvents(c fiber.Ctx) error
	CreateEvent(c fiber.Ctx) error
	GetEvent(c fiber.Ctx) error
	UpdateEvent(c fiber.Ctx) error
	DeleteEvent(c fiber.Ctx) error
	DispatchEvent(c fiber.Ctx) error
	ListEventMessages(c fiber.Ctx) error
}

// EventHandler exposes events, their dispatch and their delivery log
type EventHandler struct {
	baseHandler
	eventFlow    businessflow.EventFlow
	dispatchFlow businessflow.DispatchFlow
	messageFlow  businessflow.MessageFlow
}

func NewEventHandler(
	eventFlow businessflow.EventFlow,
	dispatchFlow businessflow.DispatchFlow,
	messageFlow businessflow.MessageFlow,
	v *validator.Validate,
	logger *slog.Logger,
) *EventHandler {
	return &EventHandler{
		baseHandler:  newBaseHandler(v, logger),
		eventFlow:    eventFlow,
		dispatchFlow: dispatchFlow,
		messageFlow:  messageFlow,
	}
}

func (h *EventHandler) eventError(c fiber.Ctx, err error, fallbackMsg, fallbackCode string) error {
	switch {
	case businessflow.IsEventNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Event not found", "EVENT_NOT_FOUND", nil)
	case businessflow.IsEventAccessDenied(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Event belongs to another account", "EVENT_ACCESS_DENIED", nil)
	case businessflow.IsEventMessageRequired(err), businessflow.IsMessageBodyRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Message is required", "MESSAGE_REQUIRED", nil)
	case businessflow.IsEventRecipientsRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one recipient phone is required", "RECIPIENTS_REQUIRED", nil)
	case businessflow.IsNoRecipients(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Event has no recipients to send to", "NO_RECIPIENTS", nil)
	case businessflow.IsInvalidChannel(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Channel must be sms or whatsapp", "INVALID_CHANNEL", nil)
	case businessflow.IsInvalidPage(err), businessflow.IsInvalidPageSize(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination", "INVALID_PAGINATION", err.Error())
	}
	h.logger.Error(fallbackMsg, "error", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMsg, fallbackCode, nil)
}

func (h *EventHandler) eventUUIDParam(c fiber.Ctx) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return uuid.Nil, false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid event uuid", "INVALID_EVENT_UUID", nil)
	}
	return id, true, nil
}

// ListEvents lists the caller's events, newest first
// @Summary List events
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListEventsResponse} "Events retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Router /api/v1/events [get]
func (h *EventHandler) ListEvents(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	page, pageSize := queryPage(c, 20)

	ctx, cancel := h.createRequestContext(c, "/api/v1/events")
	defer cancel()

	res, err := h.eventFlow.ListEvents(ctx, accountID, &dto.ListEventsRequest{Page: page, PageSize: pageSize})
	if err != nil {
		return h.eventError(c, err, "Failed to list events", "LIST_EVENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Events retrieved successfully", res)
}

// CreateEvent creates an event and links the guests matched by phone
// @Summary Create event
// @Description Phones not on the guest list are returned in unmatched_phones
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=dto.EventWriteResponse} "Event created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/events [post]
func (h *EventHandler) CreateEvent(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	var req dto.CreateEventRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/events")
	defer cancel()

	res, err := h.eventFlow.CreateEvent(ctx, accountID, &req, h.metadata(c))
	if err != nil {
		return h.eventError(c, err, "Failed to create event", "CREATE_EVENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Event created successfully", res)
}

// GetEvent returns one event with its recipients
// @Summary Get event
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Event UUID"
// @Success 200 {object} dto.APIResponse{data=dto.EventDTO} "Event retrieved successfully"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Event not found"
// @Router /api/v1/events/{uuid} [get]
func (h *EventHandler) GetEvent(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	eventUUID, ok, err := h.eventUUIDParam(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/events/:uuid")
	defer cancel()

	res, err := h.eventFlow.GetEvent(ctx, accountID, eventUUID)
	if err != nil {
		return h.eventError(c, err, "Failed to get event", "GET_EVENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Event retrieved successfully", res)
}

// UpdateEvent replaces an event's fields and recipient set
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Event UUID"
// @Param request body dto.UpdateEventRequest true "Event"
// @Success 200 {object} dto.APIResponse{data=dto.EventWriteResponse} "Event updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Event not found"
// @Router /api/v1/events/{uuid} [put]
func (h *EventHandler) UpdateEvent(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	eventUUID, ok, err := h.eventUUIDParam(c)
	if !ok {
		return err
	}
	var req dto.UpdateEventRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/events/:uuid")
	defer cancel()

	res, err := h.eventFlow.UpdateEvent(ctx, accountID, eventUUID, &req, h.metadata(c))
	if err != nil {
		return h.eventError(c, err, "Failed to update event", "UPDATE_EVENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Event updated successfully", res)
}

// DeleteEvent removes an event. Its delivery log is kept.
// @Summary Delete event
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Event UUID"
// @Success 200 {object} dto.APIResponse "Event deleted"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Event not found"
// @Router /api/v1/events/{uuid} [delete]
func (h *EventHandler) DeleteEvent(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	eventUUID, ok, err := h.eventUUIDParam(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/events/:uuid")
	defer cancel()

	if err := h.eventFlow.DeleteEvent(ctx, accountID, eventUUID, h.metadata(c)); err != nil {
		return h.eventError(c, err, "Failed to delete event", "DELETE_EVENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Event deleted successfully", nil)
}

// DispatchEvent sends the event message to its guests
// @Summary Dispatch event
// @Description Sends one personalized message per recipient. Per-recipient failures are reported in results and never fail the request.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Event UUID"
// @Param request body dto.DispatchRequest true "Dispatch options"
// @Success 200 {object} dto.APIResponse{data=dto.DispatchResponse} "Dispatch completed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Event not found"
// @Router /api/v1/events/{uuid}/dispatch [post]
func (h *EventHandler) DispatchEvent(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	eventUUID, ok, err := h.eventUUIDParam(c)
	if !ok {
		return err
	}
	var req dto.DispatchRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	// a large guest list with a slow provider outlives the default request timeout
	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/events/:uuid/dispatch", 5*defaultRequestTimeout)
	defer cancel()

	res, err := h.dispatchFlow.Dispatch(ctx, accountID, eventUUID, &req, h.metadata(c))
	if err != nil {
		return h.eventError(c, err, "Dispatch failed", "DISPATCH_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Dispatch completed", res)
}

// ListEventMessages returns the delivery log of one event
// @Summary Event delivery log
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Event UUID"
// @Param status query string false "Filter by status"
// @Param channel query string false "Filter by channel (sms, whatsapp)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 50, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListSentMessagesResponse} "Messages retrieved successfully"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Event not found"
// @Router /api/v1/events/{uuid}/messages [get]
func (h *EventHandler) ListEventMessages(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	eventUUID, ok, err := h.eventUUIDParam(c)
	if !ok {
		return err
	}
	page, pageSize := queryPage(c, 50)
	eventID := eventUUID.String()
	req := dto.ListSentMessagesRequest{
		EventUUID: &eventID,
		Status:    queryString(c, "status"),
		Channel:   queryString(c, "channel"),
		Page:      page,
		PageSize:  pageSize,
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/events/:uuid/messages")
	defer cancel()

	res, err := h.messageFlow.ListSentMessages(ctx, accountID, &req)
	if err != nil {
		return h.eventError(c, err, "Failed to list messages", "LIST_MESSAGES_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Messages retrieved successfully", res)
}
