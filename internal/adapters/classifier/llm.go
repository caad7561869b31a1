package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"focus-feed/internal/domain"
	openai "focus-feed/internal/infra/openai"
)

type chatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMClassifier классифицирует видео через Chat Completions.
type LLMClassifier struct {
	client  chatCompletionClient
	model   string
	timeout time.Duration
}

// NewLLM создаёт LLM-классификатор.
func NewLLM(client chatCompletionClient, model string, timeout time.Duration) *LLMClassifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMClassifier{client: client, model: model, timeout: timeout}
}

var _ domain.Classifier = (*LLMClassifier)(nil)

type llmClassification struct {
	Category           string  `json:"category"`
	ConfidenceScore    float64 `json:"confidence_score"`
	EntertainmentScore float64 `json:"entertainment_score"`
	DepthScore         float64 `json:"depth_score"`
	ClickbaitScore     float64 `json:"clickbait_score"`
}

const systemPrompt = "You are a video content classifier. Respond with ONLY the JSON, no other text."

const promptTemplate = `Analyze the following video metadata and classify it.

VIDEO INFORMATION:
Title: %s
Description: %s
Tags: %s
Channel: %s
Duration: %d seconds

TASK: Classify this video and provide scores. Respond ONLY with valid JSON in this exact format:
{
    "category": "one of: EDUCATION, STUDY, TECH, MUSIC, PODCAST, NEWS, ENTERTAINMENT, MEME, CLICKBAIT, GAMING",
    "confidence_score": 0.0 to 1.0 (how confident you are in the classification),
    "entertainment_score": 0.0 to 1.0 (0 = purely educational, 1 = purely entertainment),
    "depth_score": 0.0 to 1.0 (0 = shallow/superficial, 1 = deep/informative),
    "clickbait_score": 0.0 to 1.0 (0 = no clickbait, 1 = extreme clickbait)
}

CLASSIFICATION GUIDELINES:
- EDUCATION: Formal courses, tutorials, lectures from educational channels
- STUDY: Academic content, research, study techniques
- TECH: Technology reviews, coding tutorials, tech news
- MUSIC: Songs, albums, concerts, music videos
- PODCAST: Long-form discussions, interviews (usually 20+ minutes)
- NEWS: Current events, news analysis
- ENTERTAINMENT: General entertainment, vlogs, comedy (not meme)
- MEME: Short viral content, memes, compilations
- CLICKBAIT: Sensationalized titles, misleading thumbnails, low value
- GAMING: Game streams, reviews, gameplay

Clickbait indicators:
- ALL CAPS words in title
- Excessive punctuation (!!!, ???)
- Phrases like "You won't believe", "Gone wrong", "SHOCKING"
- Misleading or sensationalized claims`

// Classify отправляет метаданные модели и разбирает JSON-ответ.
// Неизвестная категория приводится к ENTERTAINMENT, оценки зажимаются в [0, 1].
func (c *LLMClassifier) Classify(ctx context.Context, video domain.VideoMetadata) (domain.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tags := video.Tags
	if len(tags) > 20 {
		tags = tags[:20]
	}
	prompt := fmt.Sprintf(promptTemplate,
		video.Title,
		truncate(video.Description, 500),
		strings.Join(tags, ", "),
		video.ChannelTitle,
		video.DurationSeconds,
	)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("llm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Classification{}, fmt.Errorf("llm completion: пустой ответ")
	}

	content := stripCodeFence(strings.TrimSpace(resp.Choices[0].Message.Content))
	var parsed llmClassification
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.Classification{}, fmt.Errorf("распаковка ответа LLM: %w", err)
	}

	category := domain.Category(strings.ToUpper(strings.TrimSpace(parsed.Category)))
	if !knownCategory(category) {
		category = domain.CategoryEntertainment
	}
	return domain.Classification{
		Category:           category,
		ConfidenceScore:    clamp(parsed.ConfidenceScore),
		EntertainmentScore: clamp(parsed.EntertainmentScore),
		DepthScore:         clamp(parsed.DepthScore),
		ClickbaitScore:     clamp(parsed.ClickbaitScore),
	}, nil
}

func knownCategory(category domain.Category) bool {
	for _, c := range domain.LLMCategories {
		if c == category {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// stripCodeFence снимает обрамление ```json, которое модели иногда
// добавляют вопреки инструкции.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
