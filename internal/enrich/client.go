package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/models"
)

// Client implements Service against the HuggingFace Inference API.
type Client struct {
	cfg  config.EnrichmentConfig
	http *http.Client
}

func NewClient(cfg config.EnrichmentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

// Summarize runs the summarization model over text.
func (c *Client) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	body := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"max_length": maxLen,
			"min_length": minLen,
			"do_sample":  false,
		},
	}
	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := c.post(ctx, "summarize", "/models/"+c.cfg.SummaryModel, body, &out); err != nil {
		return "", err
	}
	if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return "", &models.EnrichmentError{Op: "summarize", Err: errors.New("no summary in response")}
	}
	return out[0].SummaryText, nil
}

// ExtractEntities runs the NER model and keeps organisations, persons and
// locations, deduplicated.
func (c *Client) ExtractEntities(ctx context.Context, text string) ([]models.Entity, error) {
	body := map[string]any{"inputs": text}
	var out []struct {
		EntityGroup string `json:"entity_group"`
		Word        string `json:"word"`
	}
	if err := c.post(ctx, "extract_entities", "/models/"+c.cfg.NERModel, body, &out); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var entities []models.Entity
	for _, ent := range out {
		switch ent.EntityGroup {
		case "ORG", "PER", "LOC":
		default:
			continue
		}
		if _, ok := seen[ent.Word]; ok {
			continue
		}
		seen[ent.Word] = struct{}{}
		entities = append(entities, models.Entity{Text: ent.Word, Type: ent.EntityGroup})
	}
	return entities, nil
}

// Converse generates the next assistant reply from the session history
// via the chat model's OpenAI-compatible route.
func (c *Client) Converse(ctx context.Context, history []models.Turn) (string, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	messages := make([]message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, message{Role: turn.Role, Content: turn.Content})
	}
	body := map[string]any{
		"model":    c.cfg.ChatModel,
		"messages": messages,
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "converse", "/models/"+c.cfg.ChatModel+"/v1/chat/completions", body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", &models.EnrichmentError{Op: "converse", Err: errors.New("no choices in response")}
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &models.EnrichmentError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewBuffer(payload))
	if err != nil {
		return &models.EnrichmentError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &models.EnrichmentError{Op: op, Temporary: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &models.EnrichmentError{
			Op:        op,
			Status:    resp.StatusCode,
			Temporary: resp.StatusCode == 429 || resp.StatusCode >= 500,
			Err:       errors.New(resp.Status + ": " + string(b)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.EnrichmentError{Op: op, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}
