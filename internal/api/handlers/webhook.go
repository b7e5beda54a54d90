package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"reel-digest/internal/api/dto"
	"reel-digest/internal/api/errors"
	"reel-digest/internal/api/middleware"
	"reel-digest/internal/app/notify"
	"reel-digest/internal/app/pipeline"
	"reel-digest/internal/app/reel"
)

// SecretHeader carries the secret token Telegram echoes on every webhook call.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Submitter queues a submission for the pipeline workers.
type Submitter interface {
	Submit(sub pipeline.Submission) error
}

// WebhookHandler turns Telegram updates into pipeline submissions and
// answers the chat-level commands directly.
type WebhookHandler struct {
	submitter Submitter
	notifier  notify.Notifier
	secret    string
	logger    *zap.Logger
}

// NewWebhookHandler creates a webhook handler. An empty secret disables the
// secret token check.
func NewWebhookHandler(submitter Submitter, notifier notify.Notifier, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		submitter: submitter,
		notifier:  notifier,
		secret:    secret,
		logger:    logger,
	}
}

// Handle handles POST /telegram/webhook
//
// Updates without a text message are acknowledged and ignored. A reel link
// is queued and acknowledged with the processing message; when the queue is
// full the update is refused with 503 so Telegram delivers it again.
func (h *WebhookHandler) Handle(c *gin.Context) {
	if h.secret != "" && c.GetHeader(SecretHeader) != h.secret {
		middleware.HandleError(c, errors.NewUnauthorizedError("Invalid webhook secret"))
		return
	}

	var update dto.Update
	if err := middleware.ValidateRequest(c, &update); err != nil {
		middleware.HandleError(c, err)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat.ID == 0 || msg.Body() == "" {
		c.JSON(http.StatusOK, dto.WebhookResponse{Action: dto.ActionIgnored})
		return
	}

	ctx := c.Request.Context()
	recipient := msg.Recipient()
	log := h.logger.With(
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.Int64("update_id", update.UpdateID),
		zap.String("recipient", recipient),
	)

	switch {
	case msg.IsStart():
		h.reply(ctx, log, recipient, notify.GreetingMessage)
		c.JSON(http.StatusOK, dto.WebhookResponse{Action: dto.ActionGreeted})

	case reel.IsReelLink(msg.Body()):
		identity, sourceURL, err := reel.IdentityFromText(msg.Body())
		if err != nil {
			log.Info("reel link without shortcode", zap.Error(err))
			h.reply(ctx, log, recipient, notify.BadLinkMessage)
			c.JSON(http.StatusOK, dto.WebhookResponse{Action: dto.ActionRejected})
			return
		}

		err = h.submitter.Submit(pipeline.Submission{
			Identity:  identity,
			Recipient: recipient,
			SourceURL: sourceURL,
		})
		if err != nil {
			log.Warn("submission refused", zap.String("key", identity.Key()), zap.Error(err))
			if stderrors.Is(err, pipeline.ErrQueueFull) || stderrors.Is(err, pipeline.ErrRunnerStopped) {
				middleware.HandleError(c, errors.NewServiceUnavailableError("Pipeline is busy, retry later"))
				return
			}
			middleware.HandleError(c, err)
			return
		}

		log.Info("reel queued", zap.String("key", identity.Key()))
		h.reply(ctx, log, recipient, notify.ProcessingMessage)
		c.JSON(http.StatusOK, dto.WebhookResponse{Action: dto.ActionQueued, Key: identity.Key()})

	default:
		h.reply(ctx, log, recipient, notify.Echo(msg.Body()))
		c.JSON(http.StatusOK, dto.WebhookResponse{Action: dto.ActionEchoed})
	}
}

// reply sends a chat-level message. These are not part of the per-request
// notification, so failures are only logged.
func (h *WebhookHandler) reply(ctx context.Context, log *zap.Logger, recipient, text string) {
	if err := h.notifier.Send(ctx, recipient, text); err != nil {
		log.Warn("reply not delivered", zap.Error(err))
	}
}
