// Package pclima downloads climate datasets from the PCBr portal API.
package pclima

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pclima/internal/model"
	"pclima/internal/providers"
)

type Client struct {
	config    Config
	transport *transport
	log       logrus.FieldLogger
}

// New builds a client from the environment.
func New() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig resolves the API token and builds a client. It fails with a
// CredentialError when no token is found.
func NewWithConfig(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	token, err := ResolveToken(cfg.Token, cfg.RCPath)
	if err != nil {
		return nil, err
	}
	cfg.Token = token

	return &Client{
		config: cfg,
		transport: &transport{
			client:    newHTTPClient(cfg),
			token:     token,
			userAgent: cfg.UserAgent,
		},
		log: cfg.Log,
	}, nil
}

func (c *Client) Name() string {
	return "pclima"
}

// GetData downloads the data described by sel. The result is tagged with the
// requested format. Every period is built from a snapshot of sel taken on
// entry.
func (c *Client) GetData(ctx context.Context, sel model.Selection) (model.Result, error) {
	sel = sel.Clone()
	format, err := sel.Format()
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, sel.Get(model.KeyFormat))
	}
	handler, err := Select(format)
	if err != nil {
		return model.Result{}, err
	}

	interval, err := DetectInterval(sel, c.config.StrictYearRange)
	if err != nil {
		return model.Result{}, err
	}

	log := c.log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"format":     format,
		"dataset":    sel.Get(model.KeyDataset),
		"variable":   sel.Get(model.KeyVariable),
	})
	if raw := sel.Get(model.KeyYearRange); raw != "" && interval.IsZero() {
		log.WithField("ano", raw).Debug("year range is not an interval, requesting a single period")
	}
	if !interval.IsZero() {
		log = log.WithField("interval", interval.String())
	}
	log.Info("downloading")

	fetch := func(ctx context.Context, period string) ([]byte, error) {
		endpoint, err := BuildURL(c.config.BaseURL, c.config.DataPath, sel, period)
		if err != nil {
			return nil, err
		}
		return c.transport.get(ctx, log, endpoint)
	}

	result, err := handler.download(ctx, log, fetch, interval, sel.Get(model.KeyYearRange))
	if err != nil {
		log.WithError(err).Error("download failed")
		return model.Result{}, err
	}
	log.WithFields(logrus.Fields{
		"rows":    result.Rows(),
		"columns": result.Columns(),
	}).Info("download complete")
	return result, nil
}

// GetDataJSON is GetData for the request JSON generated by the portal.
func (c *Client) GetDataJSON(ctx context.Context, raw []byte) (model.Result, error) {
	sel, err := model.ParseSelection(raw)
	if err != nil {
		return model.Result{}, &ValidationError{Field: "request", Message: err.Error()}
	}
	return c.GetData(ctx, sel)
}

// Save writes r to dest using the writer of r's format.
func (c *Client) Save(ctx context.Context, r model.Result, dest string) error {
	if err := Persist(ctx, r, dest); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"format":      r.Format,
		"destination": strings.TrimSpace(dest),
	}).Info("saved")
	return nil
}

var _ providers.Provider = (*Client)(nil)
