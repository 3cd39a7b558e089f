package pclima

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const maxErrorBody = 512

type transport struct {
	client    *http.Client
	token     string
	userAgent string
}

func newHTTPClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	if !cfg.InsecureSkipVerify {
		return &http.Client{Timeout: cfg.Timeout}
	}

	cfg.Log.WithField("base_url", cfg.BaseURL).
		Warn("TLS certificate verification is DISABLED (PCLIMA_INSECURE_SKIP_VERIFY); responses can be intercepted")
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return &http.Client{Timeout: cfg.Timeout, Transport: base}
}

// get performs an authenticated GET and returns the body of a 2xx response.
func (t *transport) get(ctx context.Context, log logrus.FieldLogger, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ValidationError{Field: "url", Message: err.Error()}
	}
	req.Header.Set("Authorization", "Token "+t.token)
	req.Header.Set("Accept", "*/*")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	log.WithField("url", endpoint).Debug("requesting")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if len(message) > maxErrorBody {
			message = message[:maxErrorBody] + "..."
		}
		if message == "" {
			message = resp.Status
		}
		return nil, &APIError{StatusCode: resp.StatusCode, URL: endpoint, Message: message}
	}

	log.WithFields(logrus.Fields{
		"url":    endpoint,
		"status": resp.StatusCode,
		"size":   humanize.Bytes(uint64(len(body))),
	}).Debug("response received")
	return body, nil
}
