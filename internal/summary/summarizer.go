package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Placeholder returned whenever the inference backend cannot produce a
// summary. The request carrying it still succeeds; degraded summaries are
// fail-soft, not errors.
const degradedSummary = "Ringkasan tidak tersedia saat ini."

const defaultModel = "cahya/bert2bert-indonesian-summarization"

type SummarizerConfig struct {
	BaseURL    string
	Model      string
	APIToken   string
	HTTPClient *http.Client
}

// Summarizer calls an external inference API. Construct one at startup and
// hand it to the service; there is no package-level client.
type Summarizer struct {
	baseURL  string
	model    string
	apiToken string
	client   *http.Client
}

func NewSummarizer(cfg SummarizerConfig) *Summarizer {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api-inference.huggingface.co/models"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Summarizer{
		baseURL:  base,
		model:    model,
		apiToken: strings.TrimSpace(cfg.APIToken),
		client:   client,
	}
}

// Summarize returns the model's summary of text, or the degraded
// placeholder when the backend times out, rejects the call, or answers
// with something unusable.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	if s.apiToken == "" {
		return degradedSummary
	}

	out, err := s.callInference(ctx, text)
	if err != nil {
		return degradedSummary
	}
	return out
}

func (s *Summarizer) callInference(ctx context.Context, text string) (string, error) {
	reqBody := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"min_length":         30,
			"max_length":         80,
			"repetition_penalty": 2.5,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := s.baseURL + "/" + s.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("summarizer status %d", resp.StatusCode)
	}

	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	for _, item := range out {
		if v := strings.TrimSpace(item.SummaryText); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("empty summarizer response")
}
