package handlers

import (
	"encoding/xml"
	"log/slog"

	"github.com/amirphl/partyline/app/dto"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/gofiber/fiber/v3"
)

type WebhookHandlerInterface interface {
	StatusCallback(c fiber.Ctx) error
	InboundMessage(c fiber.Ctx) error
}

// WebhookHandler receives form posts from the messaging provider
type WebhookHandler struct {
	baseHandler
	reconcileFlow businessflow.ReconcileFlow
	inboundFlow   businessflow.InboundFlow
}

func NewWebhookHandler(reconcileFlow businessflow.ReconcileFlow, inboundFlow businessflow.InboundFlow, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		baseHandler:   newBaseHandler(nil, logger),
		reconcileFlow: reconcileFlow,
		inboundFlow:   inboundFlow,
	}
}

// StatusCallback records a delivery status update
// @Summary Delivery status callback
// @Description Unknown message ids are acknowledged without changes
// @Tags Webhooks
// @Accept x-www-form-urlencoded
// @Produce json
// @Param MessageSid formData string true "Provider message id"
// @Param MessageStatus formData string true "New status"
// @Param ErrorCode formData string false "Provider error code"
// @Param ErrorMessage formData string false "Provider error message"
// @Success 200 {object} dto.APIResponse "Processed"
// @Failure 400 {object} dto.APIResponse "Missing MessageSid or MessageStatus"
// @Router /api/v1/webhooks/messaging/status [post]
func (h *WebhookHandler) StatusCallback(c fiber.Ctx) error {
	req := dto.StatusCallbackRequest{
		MessageSid:    c.FormValue("MessageSid"),
		MessageStatus: c.FormValue("MessageStatus"),
		ErrorCode:     c.FormValue("ErrorCode"),
		ErrorMessage:  c.FormValue("ErrorMessage"),
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/webhooks/messaging/status")
	defer cancel()

	res, err := h.reconcileFlow.Reconcile(ctx, req.MessageSid, req.MessageStatus, req.ErrorCode, req.ErrorMessage)
	if err != nil {
		if businessflow.IsWebhookValidation(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "MessageSid and MessageStatus are required", "VALIDATION_ERROR", err.Error())
		}
		h.logger.Error("Status callback failed", "provider_message_id", req.MessageSid, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Status callback failed", "STATUS_CALLBACK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Status processed", fiber.Map{
		"matched": res.Matched,
		"applied": res.Applied,
	})
}

// InboundMessage routes a guest's reply
// @Summary Inbound message
// @Description STOP/START change the opt-out flag. Other replies are forwarded to the account that last messaged the sender.
// @Tags Webhooks
// @Accept x-www-form-urlencoded
// @Produce xml
// @Produce json
// @Param From formData string true "Sender address"
// @Param To formData string false "Receiving address"
// @Param Body formData string true "Message text"
// @Success 200 {object} dto.TwiMLResponse "Auto-reply, or JSON acknowledgement when forwarded"
// @Failure 400 {object} dto.APIResponse "Missing From or Body"
// @Failure 404 {object} dto.APIResponse "No prior message to this sender"
// @Router /api/v1/webhooks/messaging/inbound [post]
func (h *WebhookHandler) InboundMessage(c fiber.Ctx) error {
	req := dto.InboundMessageRequest{
		From: c.FormValue("From"),
		To:   c.FormValue("To"),
		Body: c.FormValue("Body"),
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/webhooks/messaging/inbound")
	defer cancel()

	out, err := h.inboundFlow.HandleInbound(ctx, &req)
	if err != nil {
		if businessflow.IsWebhookValidation(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "From and Body are required", "VALIDATION_ERROR", err.Error())
		}
		h.logger.Error("Inbound message failed", "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Inbound message failed", "INBOUND_FAILED", nil)
	}

	switch out.Kind {
	case businessflow.InboundForwarded:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
	case businessflow.InboundNotFound:
		return h.ErrorResponse(c, fiber.StatusNotFound, "No prior message to this sender", "NO_PRIOR_MESSAGE", nil)
	default:
		return h.replyMarkup(c, out.Reply)
	}
}

func (h *WebhookHandler) replyMarkup(c fiber.Ctx, text string) error {
	body, err := xml.Marshal(dto.TwiMLResponse{Message: text})
	if err != nil {
		h.logger.Error("Reply markup encoding failed", "error", err)
		body = []byte("<Response></Response>")
	}
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.Status(fiber.StatusOK).Send(append([]byte(xml.Header), body...))
}
