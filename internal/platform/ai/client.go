// Package ai proxies the external diagnosis-suggestion service. Prompting
// and model choice live on that service; this client only ships a case
// summary and returns the suggested differentials.
package ai

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/ercase/ercase/internal/platform/metrics"
)

// DifferentialRequest summarizes the effective case view for the
// suggestion service.
type DifferentialRequest struct {
	ChiefComplaint          string   `json:"chief_complaint"`
	PatientAge              int      `json:"patient_age,omitempty"`
	PatientSex              string   `json:"patient_sex,omitempty"`
	AcuityLevel             int      `json:"acuity_level,omitempty"`
	HistoryOfPresentIllness string   `json:"history_of_present_illness,omitempty"`
	ProvisionalDiagnoses    []string `json:"provisional_diagnoses,omitempty"`
}

type differentialResponse struct {
	Differentials []string `json:"differentials"`
}

// Client calls the diagnosis-suggestion API.
type Client struct {
	httpClient *resty.Client
	metrics    *metrics.Collector
	logger     zerolog.Logger
}

// NewClient builds a Client against baseURL. The API key rides on every
// request as a bearer token.
func NewClient(baseURL, apiKey string, timeout time.Duration, collector *metrics.Collector, logger zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(apiKey)

	return &Client{
		httpClient: client,
		metrics:    collector,
		logger:     logger,
	}
}

// SuggestDifferentials posts the case summary and returns the suggested
// differential diagnoses. Transport failures and non-2xx responses both
// come back as errors; callers decide whether the feature degrades.
func (c *Client) SuggestDifferentials(ctx context.Context, req DifferentialRequest) ([]string, error) {
	start := time.Now()

	var out differentialResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/differentials")

	if err != nil {
		c.metrics.RecordUpstreamCall("ai", "error", time.Since(start))
		c.logger.Error().Err(err).Msg("diagnosis service call failed")
		return nil, fmt.Errorf("call diagnosis service: %w", err)
	}

	c.metrics.RecordUpstreamCall("ai", strconv.Itoa(resp.StatusCode()), time.Since(start))

	if resp.IsError() {
		c.logger.Error().
			Int("status", resp.StatusCode()).
			Msg("diagnosis service returned error")
		return nil, fmt.Errorf("diagnosis service returned status %d", resp.StatusCode())
	}

	c.logger.Debug().
		Int("suggestions", len(out.Differentials)).
		Msg("diagnosis service responded")

	return out.Differentials, nil
}
