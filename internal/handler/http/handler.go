package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	_ "github.com/aniladanir/lr-gateway/docs"
	"github.com/aniladanir/lr-gateway/internal/cache"
	"github.com/aniladanir/lr-gateway/internal/service"
	"github.com/aniladanir/lr-gateway/internal/whatsapp"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// seenTTL covers Meta's redelivery window.
const seenTTL = 24 * time.Hour

type Handler struct {
	dispatcher  service.Dispatcher
	cache       cache.Cache
	verifyToken string
	appSecret   string
	logger      *slog.Logger
	server      *http.Server
}

// @title LR Gateway API
// @version 1.0
// @description WhatsApp webhook gateway generating lorry receipts
// @host localhost:8080
// @BasePath /
func NewHttpHandler(addr, verifyToken, appSecret string, dispatcher service.Dispatcher, seen cache.Cache, logger *slog.Logger) *Handler {
	h := &Handler{
		dispatcher:  dispatcher,
		cache:       seen,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		logger:      logger,
	}

	// create router
	router := gin.Default()

	// register routes
	router.GET("/webhook", h.verifyWebhook)
	router.POST("/webhook", h.receiveWebhook)
	router.GET("/health", h.health)
	router.GET("/sent-numbers", h.getSentNumbers)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// create http server
	h.server = &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// VerifyWebhook godoc
// @Summary Webhook verification handshake
// @Description Echoes hub.challenge when hub.verify_token matches
// @Tags Webhook
// @Param hub.mode query string true "subscribe"
// @Param hub.verify_token query string true "verification token"
// @Param hub.challenge query string true "challenge to echo"
// @Success 200 {string} string
// @Failure 403
// @Router /webhook [get]
func (h *Handler) verifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		h.logger.Info("webhook verification successful")
		c.String(http.StatusOK, challenge)
		return
	}

	h.logger.Warn("webhook verification failed", "mode", mode)
	c.Status(http.StatusForbidden)
}

// ReceiveWebhook godoc
// @Summary Receive WhatsApp messages
// @Description Processes inbound text messages; redelivered message ids are ignored
// @Tags Webhook
// @Accept json
// @Param payload body whatsapp.WebhookPayload true "Meta webhook envelope"
// @Success 200
// @Failure 400
// @Failure 401
// @Failure 500
// @Router /webhook [post]
func (h *Handler) receiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "read error")
		return
	}

	if h.appSecret != "" && !validSignature(body, c.GetHeader("X-Hub-Signature-256"), h.appSecret) {
		h.logger.Warn("webhook signature rejected")
		c.String(http.StatusUnauthorized, "invalid signature")
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("malformed webhook payload", "error", err.Error())
		c.String(http.StatusBadRequest, "invalid JSON")
		return
	}

	// a dropped connection must not abort a half done submission
	ctx := context.WithoutCancel(c.Request.Context())

	failed := false
	for _, msg := range payload.TextMessages() {
		if !h.firstDelivery(ctx, msg.ID) {
			h.logger.Info("skipping redelivered message", slog.String("messageId", msg.ID))
			continue
		}
		if err := h.dispatcher.Dispatch(ctx, msg); err != nil {
			h.logger.Error("failed to dispatch message",
				slog.String("messageId", msg.ID),
				"error", err.Error())
			failed = true
		}
	}

	if failed {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

// firstDelivery claims id; a cache failure lets the message through.
func (h *Handler) firstDelivery(ctx context.Context, id string) bool {
	if id == "" || h.cache == nil {
		return true
	}
	ok, err := h.cache.SetNX(ctx, "wamid:"+id, "1", seenTTL)
	if err != nil {
		h.logger.Warn("dedupe cache unavailable", "error", err.Error())
		return true
	}
	return ok
}

// Health godoc
// @Summary Liveness probe
// @Tags Ops
// @Success 200 {string} string "ok"
// @Router /health [get]
func (h *Handler) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GetSentNumbers godoc
// @Summary Numbers that received an LR
// @Description Distinct senders that received an LR PDF since the process started
// @Tags Ops
// @Produce json
// @Success 200 {array} string
// @Router /sent-numbers [get]
func (h *Handler) getSentNumbers(c *gin.Context) {
	numbers := h.dispatcher.SentNumbers()
	if numbers == nil {
		numbers = []string{}
	}
	c.JSON(http.StatusOK, numbers)
}

// validSignature checks the X-Hub-Signature-256 HMAC.
func validSignature(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	sig := strings.TrimPrefix(header, "sha256=")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}
