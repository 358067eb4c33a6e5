package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cart-offer/internal/model"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const userSegmentPath = "/api/v1/user_segment"

// httpResolver resolves segments by calling the user segment service.
type httpResolver struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient returns an instrumented client suitable for NewHTTPResolver.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewHTTPResolver creates a Resolver that queries
// GET {baseURL}/api/v1/user_segment?user_id={id}.
func NewHTTPResolver(baseURL string, client *http.Client, logger zerolog.Logger) Resolver {
	if client == nil {
		client = NewHTTPClient(2 * time.Second)
	}
	return &httpResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With().Str("component", "segment-http-resolver").Logger(),
	}
}

// Resolve asks the segment service for the user's segment.
// A 404 or an empty segment means the user has no segment.
func (r *httpResolver) Resolve(ctx context.Context, userID int64) (string, bool, error) {
	query := url.Values{}
	query.Set("user_id", strconv.FormatInt(userID, 10))
	endpoint := r.baseURL + userSegmentPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build segment request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("segment service request failed")
		return "", false, fmt.Errorf("segment service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		r.logger.Debug().Int64("user_id", userID).Msg("user has no segment")
		return "", false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		r.logger.Warn().
			Int64("user_id", userID).
			Int("status", resp.StatusCode).
			Msg("unexpected segment service status")
		return "", false, fmt.Errorf("segment service returned status %d", resp.StatusCode)
	}

	var body model.SegmentResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err != nil {
		return "", false, fmt.Errorf("failed to decode segment response: %w", err)
	}

	segment := strings.TrimSpace(body.Segment)
	if segment == "" {
		return "", false, nil
	}

	return segment, true, nil
}
