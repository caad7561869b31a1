package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"focus-feed/internal/domain"
	openai "focus-feed/internal/infra/openai"
)

type stubClient struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatMessage{Role: "assistant", Content: s.content}},
		},
	}, nil
}

func TestLLMClassify(t *testing.T) {
	client := &stubClient{content: `{"category": "TECH", "confidence_score": 0.9, "entertainment_score": 0.2, "depth_score": 0.8, "clickbait_score": 0.05}`}
	llm := NewLLM(client, "gpt-4o-mini", 0)

	got, err := llm.Classify(context.Background(), domain.VideoMetadata{Title: "Rust ownership explained"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Category != domain.CategoryTech {
		t.Fatalf("ожидали TECH, получили %s", got.Category)
	}
	if got.ConfidenceScore != 0.9 || got.DepthScore != 0.8 {
		t.Fatalf("оценки должны переноситься из ответа: %+v", got)
	}
	if client.lastReq.Model != "gpt-4o-mini" {
		t.Fatalf("модель должна передаваться в запрос, получили %q", client.lastReq.Model)
	}
	if client.lastReq.ResponseFormat == nil || client.lastReq.ResponseFormat.Type != openai.ResponseFormatTypeJSONObject {
		t.Fatalf("ожидали формат ответа json_object")
	}
}

func TestLLMClassifyStripsCodeFence(t *testing.T) {
	client := &stubClient{content: "```json\n{\"category\": \"music\", \"confidence_score\": 0.8}\n```"}
	llm := NewLLM(client, "gpt-4o-mini", 0)

	got, err := llm.Classify(context.Background(), domain.VideoMetadata{Title: "Lofi mix"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Category != domain.CategoryMusic {
		t.Fatalf("регистр категории нормализуется, получили %s", got.Category)
	}
}

func TestLLMClassifyUnknownCategory(t *testing.T) {
	client := &stubClient{content: `{"category": "COOKING", "confidence_score": 0.8}`}
	llm := NewLLM(client, "gpt-4o-mini", 0)

	got, err := llm.Classify(context.Background(), domain.VideoMetadata{Title: "Pasta recipe"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Category != domain.CategoryEntertainment {
		t.Fatalf("неизвестная категория приводится к ENTERTAINMENT, получили %s", got.Category)
	}
}

func TestLLMClassifyClampsScores(t *testing.T) {
	client := &stubClient{content: `{"category": "NEWS", "confidence_score": 1.7, "clickbait_score": -0.4}`}
	llm := NewLLM(client, "gpt-4o-mini", 0)

	got, err := llm.Classify(context.Background(), domain.VideoMetadata{Title: "Daily briefing"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.ConfidenceScore != 1.0 {
		t.Fatalf("оценка сверху зажимается единицей, получили %v", got.ConfidenceScore)
	}
	if got.ClickbaitScore != 0 {
		t.Fatalf("оценка снизу зажимается нулём, получили %v", got.ClickbaitScore)
	}
}

func TestLLMClassifyErrors(t *testing.T) {
	llm := NewLLM(&stubClient{err: errors.New("rate limit")}, "gpt-4o-mini", 0)
	if _, err := llm.Classify(context.Background(), domain.VideoMetadata{}); err == nil {
		t.Fatalf("ошибка клиента должна пробрасываться")
	}

	llm = NewLLM(&stubClient{content: "not json"}, "gpt-4o-mini", 0)
	if _, err := llm.Classify(context.Background(), domain.VideoMetadata{}); err == nil {
		t.Fatalf("нечитаемый ответ должен давать ошибку")
	}
}

func TestLLMClassifyTruncatesInput(t *testing.T) {
	client := &stubClient{content: `{"category": "TECH"}`}
	llm := NewLLM(client, "gpt-4o-mini", 0)

	tags := make([]string, 40)
	for i := range tags {
		tags[i] = "tag"
	}
	video := domain.VideoMetadata{
		Title:       "Long description video",
		Description: strings.Repeat("а", 900),
		Tags:        tags,
	}
	if _, err := llm.Classify(context.Background(), video); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	prompt := client.lastReq.Messages[1].Content
	if strings.Count(prompt, "tag") != 20 {
		t.Fatalf("в промпт уходят максимум 20 тегов, получили %d", strings.Count(prompt, "tag"))
	}
	if strings.Count(prompt, "а") > 520 {
		t.Fatalf("описание должно обрезаться до 500 символов")
	}
}
