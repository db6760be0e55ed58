// Package genai generates quiz questions with the Gemini generateContent API
// and converts the loosely typed reply into validated quiz questions.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gemini "google.golang.org/genai"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	ErrGeneration        = errors.New("question generation failed")
	ErrMalformedResponse = errors.New("malformed generation response")
)

// Generator produces questions for a quiz configuration.
type Generator interface {
	Generate(ctx context.Context, s quiz.Settings) ([]quiz.Question, error)
}

// Client generates questions through the Gemini API.
type Client struct {
	api   *gemini.Client
	model string
}

// NewClient builds a Gemini API client. baseURL may be empty for the public
// endpoint.
func NewClient(ctx context.Context, baseURL, apiKey, model string) (*Client, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	api, err := gemini.NewClient(ctx, &gemini.ClientConfig{
		APIKey:     apiKey,
		Backend:    gemini.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		HTTPOptions: gemini.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: "v1beta",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{api: api, model: model}, nil
}

func (c *Client) Generate(ctx context.Context, s quiz.Settings) ([]quiz.Question, error) {
	resp, err := c.api.Models.GenerateContent(ctx, c.model, gemini.Text(BuildPrompt(s)), &gemini.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return Decode([]byte(replyText(resp)), s)
}

// replyText joins the text parts of the first candidate.
func replyText(resp *gemini.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// wireQuestion is the model's reply shape; every field is optional until
// checked.
type wireQuestion struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Topic              string   `json:"topic"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
	Diagram            string   `json:"diagram"`
}

// Decode converts the model's JSON array into questions for s. Entries
// without a usable answer key are dropped; a malformed diagram is removed
// rather than shown. Duplicate or empty ids are replaced. It fails when
// nothing usable remains.
func Decode(payload []byte, s quiz.Settings) ([]quiz.Question, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}
	var items []wireQuestion
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]quiz.Question, 0, len(items))
	seen := map[string]bool{}
	for i, w := range items {
		if w.CorrectAnswerIndex == nil {
			log.Printf("genai: drop item %d: missing correctAnswerIndex", i)
			continue
		}
		q := quiz.Question{
			ID:           strings.TrimSpace(w.ID),
			Text:         strings.TrimSpace(w.Text),
			Options:      w.Options,
			CorrectIndex: *w.CorrectAnswerIndex,
			Explanation:  strings.TrimSpace(w.Explanation),
			Topic:        strings.TrimSpace(w.Topic),
			Subject:      s.Subject,
			Grade:        s.Grade,
			Diagram:      strings.TrimSpace(w.Diagram),
		}
		if q.Topic == "" {
			q.Topic = strings.TrimSpace(s.Topic)
		}
		if q.ID == "" || seen[q.ID] {
			q.ID = uuid.NewString()
		}
		if q.HasDiagram() && !quiz.WellFormedDiagram(q.Diagram) {
			log.Printf("genai: item %d: discarding malformed diagram", i)
			q.Diagram = ""
		}
		if err := q.Validate(); err != nil {
			log.Printf("genai: drop item %d: %v", i, err)
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable questions", ErrMalformedResponse)
	}
	return out, nil
}
