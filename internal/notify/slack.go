package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	// uploadURL is the Slack Web API endpoint for file uploads.
	uploadURL = "https://slack.com/api/files.upload"
)

// Slack posts report messages to an incoming webhook and optionally
// uploads chart images via the Web API.
type Slack struct {
	webhookURL string
	botToken   string
	channel    string
	client     *http.Client

	// uploadEndpoint overrides uploadURL in tests.
	uploadEndpoint string
}

// New returns a Slack notifier. webhookURL is required for PostSummary;
// botToken and channel are only needed for UploadChart.
func New(webhookURL, botToken, channel string) *Slack {
	return &Slack{
		webhookURL:     webhookURL,
		botToken:       botToken,
		channel:        channel,
		client:         &http.Client{Timeout: defaultTimeout},
		uploadEndpoint: uploadURL,
	}
}

// CanPost reports whether a webhook URL is configured.
func (s *Slack) CanPost() bool {
	return s.webhookURL != ""
}

// CanUpload reports whether chart uploads are configured.
func (s *Slack) CanUpload() bool {
	return s.botToken != "" && s.channel != ""
}

// PostSummary sends the report text to the incoming webhook.
func (s *Slack) PostSummary(ctx context.Context, text string) error {
	if s.webhookURL == "" {
		return fmt.Errorf("notify: no webhook URL configured")
	}

	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// uploadResponse is the subset of the files.upload reply we check.
type uploadResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// UploadChart sends one chart PNG to the configured channel with an
// initial comment. Requires CanUpload.
func (s *Slack) UploadChart(ctx context.Context, filename string, png []byte, comment string) error {
	if !s.CanUpload() {
		return fmt.Errorf("notify: chart upload not configured")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("channels", s.channel)
	_ = mw.WriteField("initial_comment", comment)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("notify: build upload form: %w", err)
	}
	if _, err := fw.Write(png); err != nil {
		return fmt.Errorf("notify: write upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("notify: close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadEndpoint, &buf)
	if err != nil {
		return fmt.Errorf("notify: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: upload %s: HTTP %d", filename, resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&ur); err != nil {
		return fmt.Errorf("notify: decode upload response: %w", err)
	}
	if !ur.OK {
		return fmt.Errorf("notify: upload %s rejected: %s", filename, ur.Error)
	}
	return nil
}
