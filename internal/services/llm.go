package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrContentUnsuitable is returned when the model flags a draft as unfit for
// publication.
var ErrContentUnsuitable = errors.New("llm: content unsuitable")

const unsuitableSentinel = "CONTENT_UNSUITABLE"

// LLMService talks to an OpenAI-compatible chat completion endpoint. The
// generation flows assemble a prompt, send it, and validate the JSON that
// comes back before anything is persisted.
type LLMService struct {
	baseURL string
	token   string
	model   string
	client  *http.Client
}

var llmService *LLMService

func GetLLMService() *LLMService {
	if llmService == nil {
		llmService = &LLMService{
			baseURL: os.Getenv("LLM_BASE_URL"),
			token:   os.Getenv("LLM_TOKEN"),
			model:   os.Getenv("LLM_MODEL"),
			client:  &http.Client{Timeout: 60 * time.Second},
		}
	}
	return llmService
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *LLMService) chat(ctx context.Context, system, user string) (string, error) {
	if s.baseURL == "" {
		return "", errors.New("llm: LLM_BASE_URL not configured")
	}

	reqBody, err := json.Marshal(ChatRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.baseURL, "/")+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm: status %d: %s", resp.StatusCode, string(body))
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", err
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("llm: empty response")
	}

	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	if strings.Contains(content, unsuitableSentinel) {
		return "", ErrContentUnsuitable
	}
	return content, nil
}

// stripFences removes a ```json ... ``` wrapper if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func (s *LLMService) chatJSON(ctx context.Context, system, user string, out interface{}) error {
	content, err := s.chat(ctx, system, user)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(content)), out); err != nil {
		return fmt.Errorf("llm: response is not the expected JSON: %w", err)
	}
	return nil
}

type ArticleDraft struct {
	Headline string   `json:"headline"`
	Body     string   `json:"body"` // markdown
	Tags     []string `json:"tags"`
}

type PostDraft struct {
	Headline string `json:"headline"`
	Content  string `json:"content"`
}

type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type InsightDraft struct {
	Title      string        `json:"title"`
	ChartType  string        `json:"chart_type"`
	Series     []SeriesPoint `json:"series"`
	Commentary string        `json:"commentary"`
}

type TimelineEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TimelineDraft struct {
	Topic  string          `json:"topic"`
	Events []TimelineEvent `json:"events"`
}

const editorialSystem = "You are the editorial engine of Tech Ink Insights, a technology analysis publication. " +
	"Respond with a single JSON object and nothing else. " +
	"If the requested topic is unsuitable for publication, respond with " + unsuitableSentinel + "."

// GenerateArticle produces a long-form article draft for a topic.
func (s *LLMService) GenerateArticle(ctx context.Context, topic string) (*ArticleDraft, error) {
	prompt := fmt.Sprintf(
		`Write an analytical article about %q. JSON shape: {"headline": string, "body": markdown string, "tags": [string]}.`,
		topic)
	var draft ArticleDraft
	if err := s.chatJSON(ctx, editorialSystem, prompt, &draft); err != nil {
		return nil, err
	}
	if draft.Headline == "" || draft.Body == "" {
		return nil, errors.New("llm: article draft missing headline or body")
	}
	return &draft, nil
}

// GenerateSocialPost produces a short feed post for a topic.
func (s *LLMService) GenerateSocialPost(ctx context.Context, topic string) (*PostDraft, error) {
	prompt := fmt.Sprintf(
		`Write a short, punchy feed post about %q. JSON shape: {"headline": string, "content": string}.`,
		topic)
	var draft PostDraft
	if err := s.chatJSON(ctx, editorialSystem, prompt, &draft); err != nil {
		return nil, err
	}
	if draft.Headline == "" {
		return nil, errors.New("llm: post draft missing headline")
	}
	return &draft, nil
}

// GenerateChartInsight produces a chart spec plus commentary for a topic.
func (s *LLMService) GenerateChartInsight(ctx context.Context, topic string) (*InsightDraft, error) {
	prompt := fmt.Sprintf(
		`Produce a data insight about %q. JSON shape: {"title": string, "chart_type": "bar"|"line"|"pie", "series": [{"label": string, "value": number}], "commentary": string}.`,
		topic)
	var draft InsightDraft
	if err := s.chatJSON(ctx, editorialSystem, prompt, &draft); err != nil {
		return nil, err
	}
	switch draft.ChartType {
	case "bar", "line", "pie":
	default:
		return nil, fmt.Errorf("llm: unknown chart type %q", draft.ChartType)
	}
	if draft.Title == "" || len(draft.Series) == 0 {
		return nil, errors.New("llm: insight draft missing title or series")
	}
	return &draft, nil
}

// GenerateTimeline produces an ordered event timeline for a topic.
func (s *LLMService) GenerateTimeline(ctx context.Context, topic string) (*TimelineDraft, error) {
	prompt := fmt.Sprintf(
		`Produce a chronological timeline for %q. JSON shape: {"topic": string, "events": [{"date": "YYYY-MM", "title": string, "description": string}]}. At least 3 events, oldest first.`,
		topic)
	var draft TimelineDraft
	if err := s.chatJSON(ctx, editorialSystem, prompt, &draft); err != nil {
		return nil, err
	}
	// The prompt asks for at least 3
	if len(draft.Events) < 3 {
		return nil, errors.New("llm: timeline draft has too few events")
	}
	return &draft, nil
}

// Answer responds to a reader's free-form question in plain text.
func (s *LLMService) Answer(ctx context.Context, question string) (string, error) {
	system := "You are the reader assistant of Tech Ink Insights. Answer concisely in plain text. " +
		"If the question is unsuitable, respond with " + unsuitableSentinel + "."
	return s.chat(ctx, system, question)
}
