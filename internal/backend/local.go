package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brainstem-ai/brainstem/internal/config"
	"github.com/brainstem-ai/brainstem/internal/logging"
)

const (
	defaultLocalURL      = "http://127.0.0.1:11434/v1/chat/completions"
	defaultLocalAttempts = 2
	defaultLocalDelay    = 500 * time.Millisecond
)

// localBackend talks to an on-device model runner over loopback HTTP. Local
// runners crash and restart far more often than cloud endpoints, so each send
// is wrapped with a small bounded retry before a failure surfaces to the
// degradation controller.
type localBackend struct {
	id          string
	core        *openAIBackend
	maxAttempts int
	retryDelay  time.Duration
}

func newLocalBackend(id string, cfg config.LLMConfig) (Backend, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("local model is required")
	}
	endpoint := cfg.BaseURL
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultLocalURL
	}

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultLocalAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultLocalDelay
	}

	return &localBackend{
		id: id,
		core: &openAIBackend{
			id:             id,
			model:          cfg.Model,
			maxTokens:      cfg.MaxTokens,
			endpoint:       endpoint,
			requestTimeout: cfg.RequestTimeout,
			complexTimeout: cfg.ComplexTimeout,
			httpClient:     http.DefaultClient,
		},
		maxAttempts: attempts,
		retryDelay:  delay,
	}, nil
}

func newLocalBackendForTest(id, model, endpoint string, attempts int, delay time.Duration, httpClient *http.Client) (Backend, error) {
	core, err := newOpenAIBackendForTest(id, "", model, endpoint, httpClient)
	if err != nil {
		return nil, err
	}
	if attempts <= 0 {
		attempts = defaultLocalAttempts
	}
	return &localBackend{
		id:          id,
		core:        core.(*openAIBackend),
		maxAttempts: attempts,
		retryDelay:  delay,
	}, nil
}

func (b *localBackend) ID() string { return b.id }

// Send retries crash-class failures up to the attempt cap with a fixed delay.
// Policy refusals and unparseable responses surface immediately: repeating
// the identical request cannot change either outcome.
func (b *localBackend) Send(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		resp, err := b.core.Send(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		kind := KindOf(err)
		if kind == FailureContentFiltered || kind == FailureMalformedResponse {
			return nil, err
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == b.maxAttempts {
			break
		}

		logging.Logger().Warn(
			"local model call failed; retrying",
			"backend", b.id,
			"attempt", attempt,
			"max_attempts", b.maxAttempts,
			"kind", kind,
			"err", err,
		)
		select {
		case <-ctx.Done():
			return nil, classifyTransport(b.id, ctx.Err())
		case <-time.After(b.retryDelay):
		}
	}
	return nil, lastErr
}
