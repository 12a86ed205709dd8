package export

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"funnel-tracker/internal/client"
	"funnel-tracker/internal/metrics"
	"funnel-tracker/internal/models"
)

var ErrSinkNotConfigured = errors.New("export sink is not configured")

type Exporter struct {
	secret     string
	sinkURL    string
	httpClient *client.HTTPClient
	calculator *metrics.Calculator
	logger     *logrus.Logger
	now        func() time.Time
}

func NewExporter(secret, sinkURL string, httpClient *client.HTTPClient, calculator *metrics.Calculator, logger *logrus.Logger) *Exporter {
	return &Exporter{
		secret:     secret,
		sinkURL:    sinkURL,
		httpClient: httpClient,
		calculator: calculator,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// BuildReport snapshots a prospect with its current metrics, its saved
// projection and the scaling plan between them.
func (e *Exporter) BuildReport(p models.Prospect) models.ProspectReport {
	return models.ProspectReport{
		ProspectID:   p.ID,
		UserID:       p.UserID,
		Name:         p.Name,
		BusinessName: p.BusinessName,
		Status:       p.Status,
		FunnelType:   p.FunnelType,
		Current:      e.calculator.CurrentMetrics(p),
		Projection:   e.calculator.Projection(p, models.ProjectionInputs{}),
		Timeline:     e.calculator.ScalingTimeline(p, models.ProjectionInputs{}, nil),
		GeneratedAt:  e.now().Format(time.RFC3339),
	}
}

// Export posts the prospect report to the sink, signed with X-Signature.
func (e *Exporter) Export(ctx context.Context, p models.Prospect) (models.ProspectReport, error) {
	if e.sinkURL == "" {
		return models.ProspectReport{}, ErrSinkNotConfigured
	}

	report := e.BuildReport(p)

	// Create HMAC signature
	signature, err := e.createSignature(report)
	if err != nil {
		e.logger.WithError(err).Error("Failed to create signature")
		return models.ProspectReport{}, fmt.Errorf("failed to create signature: %w", err)
	}

	// Send to sink
	err = e.httpClient.DoJSON(ctx, client.Request{
		Method:  http.MethodPost,
		URL:     e.sinkURL,
		Headers: map[string]string{"X-Signature": signature},
		Body:    report,
	})
	if err != nil {
		e.logger.WithError(err).WithField("prospect_id", p.ID).Error("Failed to export prospect report")
		return models.ProspectReport{}, fmt.Errorf("failed to export prospect report: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"prospect_id": p.ID,
		"user_id":     p.UserID,
		"funnel_type": p.FunnelType,
	}).Info("Successfully exported prospect report")

	return report, nil
}

func (e *Exporter) createSignature(data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return Sign(e.secret, jsonData), nil
}

// Sign returns the sha256=<hex> HMAC of body under secret, the format of the
// X-Signature header.
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
