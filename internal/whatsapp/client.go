// Package whatsapp talks to the WhatsApp Cloud (Graph) API.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aniladanir/retry"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const DefaultBaseURL = "https://graph.facebook.com/v19.0"

var ErrNoRecipient = errors.New("empty recipient")

type Client struct {
	httpClient    *resty.Client
	phoneNumberID string
	retrier       *retry.Retrier
	logger        *slog.Logger
}

// NewClient creates a Graph API client sending as phoneNumberID. Media
// uploads are retried up to maxUploadAttempts times on transport errors
// and 5XX responses; message sends are never retried.
func NewClient(baseURL, token, phoneNumberID string, timeout time.Duration, maxUploadAttempts int, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	retrier, err := retry.New(retry.WithMaxAttemps(maxUploadAttempts))
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient:    client,
		phoneNumberID: phoneNumberID,
		retrier:       retrier,
		logger:        logger,
	}, nil
}

// SendText sends a plain text message and returns the platform message id.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", ErrNoRecipient
	}
	return c.send(ctx, sendTextRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               wireNumber(to),
		Type:             "text",
		Text:             TextContent{Body: body},
	})
}

// SendDocument sends a previously uploaded media object as a document.
func (c *Client) SendDocument(ctx context.Context, to, mediaID, filename, caption string) (string, error) {
	if to == "" {
		return "", ErrNoRecipient
	}
	return c.send(ctx, sendDocumentRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               wireNumber(to),
		Type:             "document",
		Document: documentContent{
			ID:       mediaID,
			Filename: filename,
			Caption:  caption,
		},
	})
}

func (c *Client) send(ctx context.Context, payload any) (string, error) {
	var (
		result  sendResponse
		failure apiError
	)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(payload).
		SetResult(&result).
		SetError(&failure).
		Post("/" + c.phoneNumberID + "/messages")
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		return "", responseError("send message", resp, failure)
	}
	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

// UploadMedia uploads the file at path and returns its media id.
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	var (
		mediaID   string
		uploadErr error
	)
	uploadFunc := func(attempt int) (terminate bool) {
		var (
			result  mediaResponse
			failure apiError
		)
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetHeader("X-Request-ID", uuid.NewString()).
			SetFormData(map[string]string{
				"messaging_product": "whatsapp",
				"type":              mimeType(path),
			}).
			SetFile("file", path).
			SetResult(&result).
			SetError(&failure).
			Post("/" + c.phoneNumberID + "/media")
		if err != nil {
			uploadErr = fmt.Errorf("upload media: %w", err)
			c.logger.Warn("media upload failed", "attempt", attempt, "error", err.Error())
			return false
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			// 5XX status code indicates server error, try retry
			uploadErr = responseError("upload media", resp, failure)
			c.logger.Warn("media upload failed", "attempt", attempt, "statusCode", resp.StatusCode())
			return false
		}
		if resp.IsError() {
			// 4XX indicates client error, no need to retry
			uploadErr = responseError("upload media", resp, failure)
			return true
		}
		if result.ID == "" {
			uploadErr = errors.New("upload media: response has no media id")
			return true
		}
		mediaID, uploadErr = result.ID, nil
		return true
	}

	if ok := <-c.retrier.Retry(ctx, uploadFunc, true); !ok && uploadErr == nil {
		uploadErr = errors.New("upload media: retries exhausted")
	}
	if uploadErr != nil {
		return "", uploadErr
	}
	return mediaID, nil
}

func responseError(op string, resp *resty.Response, failure apiError) error {
	msg := resp.Status()
	if failure.Error.Message != "" {
		msg = failure.Error.Message
	}
	return fmt.Errorf("%s failed (status %d): %s", op, resp.StatusCode(), msg)
}

// wireNumber strips the leading + the Graph API does not want.
func wireNumber(p string) string {
	return strings.TrimPrefix(p, "+")
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
