package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aniladanir/lr-gateway/internal/cache/memory"
	"github.com/aniladanir/lr-gateway/internal/whatsapp"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	msgs []whatsapp.Inbound
	err  error
	sent []string
}

func (d *fakeDispatcher) Dispatch(_ context.Context, msg whatsapp.Inbound) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return d.err
}

func (d *fakeDispatcher) SentNumbers() []string { return d.sent }

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{"id": "WABA", "changes": [{"field": "messages", "value": {
    "messaging_product": "whatsapp",
    "messages": [{"from": "919876543210", "id": "wamid.ABC", "timestamp": "1700000000", "type": "text", "text": {"body": "cancel"}}]
  }}]}]
}`

func newTestHandler(secret string, d *fakeDispatcher) http.Handler {
	gin.SetMode(gin.TestMode)
	h := NewHttpHandler(":0", "verify-me", secret, d, memory.NewMemoryCache(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h.server.Handler
}

func post(t *testing.T, router http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhook(t *testing.T) {
	router := newTestHandler("", &fakeDispatcher{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReceiveDispatchesTextMessages(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandler("", d)

	w := post(t, router, textPayload, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, d.msgs, 1)
	assert.Equal(t, "wamid.ABC", d.msgs[0].ID)
	assert.Equal(t, "919876543210", d.msgs[0].From)
	assert.Equal(t, "cancel", d.msgs[0].Text)
}

func TestReceiveIgnoresRedelivery(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandler("", d)

	assert.Equal(t, http.StatusOK, post(t, router, textPayload, nil).Code)
	assert.Equal(t, http.StatusOK, post(t, router, textPayload, nil).Code)

	assert.Len(t, d.msgs, 1)
}

func TestReceiveMalformedPayload(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandler("", d)

	w := post(t, router, `{"entry": [`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, d.msgs)
}

func TestReceiveStatusOnlyPayload(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandler("", d)

	w := post(t, router, `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"statuses":[{"id":"wamid.X","status":"read"}]}}]}]}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, d.msgs)
}

func TestReceiveDispatchError(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("find recent records: workbook locked")}
	router := newTestHandler("", d)

	w := post(t, router, textPayload, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReceiveSignature(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandler("app-secret", d)

	w := post(t, router, textPayload, map[string]string{"X-Hub-Signature-256": sign(textPayload, "other-secret")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(t, router, textPayload, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, d.msgs)

	w = post(t, router, textPayload, map[string]string{"X-Hub-Signature-256": sign(textPayload, "app-secret")})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, d.msgs, 1)
}

func TestHealthAndSentNumbers(t *testing.T) {
	router := newTestHandler("", &fakeDispatcher{sent: []string{"+919876543210"}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sent-numbers", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["+919876543210"]`, w.Body.String())
}
