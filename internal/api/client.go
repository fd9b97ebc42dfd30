// Package api provides the HTTP client used to download track audio.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/glebovdev/trackdeck/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	requestTimeout = 60 * time.Second
	MaxRetries     = 2
	RetryDelay     = 2 * time.Second
	MaxRetryDelay  = 5 * time.Second
)

// ErrEmptyBody is returned when the server answers 2xx with no audio data.
var ErrEmptyBody = errors.New("empty response body")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("audio source returned status %d: %s", e.StatusCode, e.Status)
}

// retryableStatus reports whether a reply with code may succeed on a later attempt.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= http.StatusInternalServerError
}

// Client downloads audio files over HTTP.
type Client struct {
	client *resty.Client
}

// NewClient creates a new Client with sensible defaults.
func NewClient() *Client {
	return &Client{client: newRestyClient()}
}

func newRestyClient() *resty.Client {
	return resty.New().
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", fmt.Sprintf("trackdeck/%s", config.AppVersion)).
		SetRetryCount(MaxRetries).
		SetRetryWaitTime(RetryDelay).
		SetRetryMaxWaitTime(MaxRetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled)
			}
			return retryableStatus(r.StatusCode())
		})
}

// FetchAudio downloads the file at url and returns its bytes.
func (c *Client) FetchAudio(ctx context.Context, url string) ([]byte, error) {
	log.Debug().Str("url", url).Msg("Fetching audio")

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("failed to fetch audio from %s: %w", url, ErrEmptyBody)
	}

	log.Debug().Str("url", url).Int("bytes", len(body)).Msg("Audio fetched")
	return body, nil
}
