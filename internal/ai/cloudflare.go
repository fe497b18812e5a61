package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const cloudflareAPI = "https://api.cloudflare.com/client/v4"

// Cloudflare transcribes through Workers AI.
// POST {base}/accounts/{account_id}/ai/run/{model} with the raw audio as body.
type Cloudflare struct {
	accountID  string
	apiToken   string
	model      string
	baseURL    string
	httpClient *http.Client
}

type CloudflareConfig struct {
	AccountID string
	APIToken  string
	Model     string
	BaseURL   string // Optional: defaults to the public API
}

func NewCloudflare(cfg CloudflareConfig) *Cloudflare {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cloudflareAPI
	}

	return &Cloudflare{
		accountID: cfg.AccountID,
		apiToken:  cfg.APIToken,
		model:     cfg.Model,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		// Callers bound each request with their own context deadline
		httpClient: &http.Client{Timeout: 30 * time.Minute},
	}
}

type cloudflareResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		Text string `json:"text"`
	} `json:"result"`
}

func (c *Cloudflare) Transcribe(ctx context.Context, audio Audio) (string, error) {
	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, audio.Body)
	if err != nil {
		return "", fmt.Errorf("cloudflare request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	contentType := audio.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudflare transcription: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("cloudflare http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr cloudflareResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("cloudflare decode: %w", err)
	}

	if !cr.Success {
		messages := make([]string, 0, len(cr.Errors))
		for _, e := range cr.Errors {
			messages = append(messages, e.Message)
		}
		return "", fmt.Errorf("cloudflare transcription failed: %s", strings.Join(messages, "; "))
	}

	return strings.TrimSpace(cr.Result.Text), nil
}
