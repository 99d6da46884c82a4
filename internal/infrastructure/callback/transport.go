package callback

import (
	"net/http"
	"time"

	"agent-evaluator/internal/application/port/output"
)

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"contentLength", req.ContentLength,
	)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("HTTP Request failed", "url", req.URL.Redacted(), "error", err)
		return nil, err
	}

	t.logger.Info("HTTP Response",
		"status", resp.Status,
		"statusCode", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (t *loggingTransport) CloseIdleConnections() {
	if c, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
