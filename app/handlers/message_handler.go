package handlers

import (
	"log/slog"

	"github.com/amirphl/partyline/app/dto"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MessageHandlerInterface interface {
	SendMessage(c fiber.Ctx) error
	LogSentMessage(c fiber.Ctx) error
	GenerateMessage(c fiber.Ctx) error
	ExportSentMessages(c fiber.Ctx) error
}

// MessageHandler exposes single sends, delivery log writes, text generation and export
type MessageHandler struct {
	baseHandler
	dispatchFlow businessflow.DispatchFlow
	messageFlow  businessflow.MessageFlow
}

func NewMessageHandler(dispatchFlow businessflow.DispatchFlow, messageFlow businessflow.MessageFlow, v *validator.Validate, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		baseHandler:  newBaseHandler(v, logger),
		dispatchFlow: dispatchFlow,
		messageFlow:  messageFlow,
	}
}

// SendMessage sends one message without writing a delivery log row
// @Summary Send one message
// @Description Hands one message to the provider. Callers record it with /messages/log.
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendMessageRequest true "Message"
// @Success 200 {object} dto.SendMessageResponse "Accepted by the provider"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 502 {object} dto.APIResponse "Provider rejected or unreachable"
// @Router /api/v1/messages/send [post]
func (h *MessageHandler) SendMessage(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	var req dto.SendMessageRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/messages/send")
	defer cancel()

	res, err := h.dispatchFlow.SendSingle(ctx, accountID, &req)
	if err != nil {
		switch {
		case businessflow.IsTransportFailed(err):
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Message provider failed to accept the message", "TRANSPORT_FAILED", err.Error())
		case businessflow.IsInvalidChannel(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Channel must be sms or whatsapp", "INVALID_CHANNEL", nil)
		case businessflow.IsInvalidPhone(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
		case businessflow.IsMessageBodyRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Message body is required", "MESSAGE_REQUIRED", nil)
		}
		h.logger.Error("Send failed", "account_id", accountID, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Send failed", "SEND_FAILED", nil)
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

// LogSentMessage writes one delivery log row
// @Summary Log a sent message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogSentMessageRequest true "Delivery log row"
// @Success 201 {object} dto.APIResponse{data=dto.SentMessageDTO} "Row written"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "from_user_id is not the caller, or event owned by another account"
// @Failure 404 {object} dto.APIResponse "Event or guest not found"
// @Router /api/v1/messages/log [post]
func (h *MessageHandler) LogSentMessage(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	var req dto.LogSentMessageRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/messages/log")
	defer cancel()

	res, err := h.dispatchFlow.LogSentMessage(ctx, accountID, &req)
	if err != nil {
		switch {
		case businessflow.IsSenderMismatch(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "from_user_id must be the authenticated account", "SENDER_MISMATCH", nil)
		case businessflow.IsEventAccessDenied(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Event belongs to another account", "EVENT_ACCESS_DENIED", nil)
		case businessflow.IsEventNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Event not found", "EVENT_NOT_FOUND", nil)
		case businessflow.IsRecipientNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Guest not found", "RECIPIENT_NOT_FOUND", nil)
		case businessflow.IsInvalidChannel(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Channel must be sms or whatsapp", "INVALID_CHANNEL", nil)
		case businessflow.IsInvalidPhone(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
		}
		h.logger.Error("Log sent message failed", "account_id", accountID, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to log sent message", "LOG_MESSAGE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Message logged successfully", res)
}

// GenerateMessage drafts an invitation text
// @Summary Generate message text
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GenerateMessageRequest true "Event details"
// @Success 200 {object} dto.APIResponse{data=dto.GenerateMessageResponse} "Message generated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 502 {object} dto.APIResponse "Generator unavailable"
// @Router /api/v1/messages/generate [post]
func (h *MessageHandler) GenerateMessage(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	var req dto.GenerateMessageRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/messages/generate")
	defer cancel()

	res, err := h.messageFlow.GenerateMessage(ctx, accountID, &req)
	if err != nil {
		if businessflow.IsGenerationFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Message generation failed", "GENERATION_FAILED", nil)
		}
		h.logger.Error("Generate message failed", "account_id", accountID, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Message generation failed", "GENERATION_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Message generated successfully", res)
}

// ExportSentMessages downloads the delivery log as XLSX
// @Summary Export delivery log
// @Description One sheet per channel. When archiving is configured the object key is returned in X-Archive-Key.
// @Tags Messages
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param event_uuid query string false "Limit the export to one event"
// @Success 200 {file} file "XLSX workbook"
// @Failure 400 {object} dto.APIResponse "Invalid event uuid"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Event not found"
// @Router /api/v1/messages/export [get]
func (h *MessageHandler) ExportSentMessages(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}

	var eventUUID *uuid.UUID
	if raw := c.Query("event_uuid"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid event uuid", "INVALID_EVENT_UUID", nil)
		}
		eventUUID = &id
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/messages/export", 2*defaultRequestTimeout)
	defer cancel()

	res, err := h.messageFlow.ExportSentMessages(ctx, accountID, eventUUID, h.metadata(c))
	if err != nil {
		switch {
		case businessflow.IsEventNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Event not found", "EVENT_NOT_FOUND", nil)
		case businessflow.IsEventAccessDenied(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Event belongs to another account", "EVENT_ACCESS_DENIED", nil)
		}
		h.logger.Error("Export failed", "account_id", accountID, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export messages", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+res.FileName)
	if res.ArchiveKey != "" {
		c.Set("X-Archive-Key", res.ArchiveKey)
	}
	return c.Status(fiber.StatusOK).Send(res.Content)
}
