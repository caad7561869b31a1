package classify

import (
	"strings"
	"unicode"

	"focus-feed/internal/domain"
)

// Heuristic классифицирует видео каскадом правил по ключевым словам.
// Чистая функция: одинаковый вход всегда даёт одинаковый результат.
func Heuristic(video domain.VideoMetadata) domain.Classification {
	title := strings.ToLower(video.Title)
	description := truncateRunes(strings.ToLower(video.Description), descriptionScanLimit)
	channel := strings.ToLower(video.ChannelTitle)

	tags := make([]string, 0, len(video.Tags))
	for _, tag := range video.Tags {
		tags = append(tags, strings.ToLower(tag))
	}

	text := title + " " + strings.Join(tags, " ") + " " + description + " " + channel

	category := domain.CategoryEntertainment
	entertainment := defaultEntertainmentScore
	depth := defaultDepthScore

	for _, stage := range cascade {
		if category != domain.CategoryEntertainment {
			break
		}
		haystack := text
		if stage.matchChannel {
			haystack = channel
		}
		for _, kw := range stage.keywords {
			if !strings.Contains(haystack, kw) {
				continue
			}
			entertainment = stage.entertainment
			depth = stage.depth
			if !stage.nudgeOnly {
				category = stage.category
			}
			break
		}
	}

	if video.DurationSeconds < shortDurationSeconds && category != domain.CategoryMusic {
		entertainment = maxFloat(entertainment, 0.7)
		depth = minFloat(depth, 0.3)
	} else if video.DurationSeconds > longDurationSeconds {
		depth = minFloat(depth+0.2, 1.0)
	}

	clickbait := defaultClickbaitScore
	for _, phrase := range clickbaitPhrases {
		if strings.Contains(text, phrase) {
			clickbait = 0.7
			break
		}
	}
	if capsRatio(video.Title) > 0.5 {
		clickbait = maxFloat(clickbait, 0.5)
	}
	if strings.Contains(video.Title, "!!!") || strings.Contains(video.Title, "???") || strings.Contains(video.Title, "🔴") {
		clickbait = maxFloat(clickbait, 0.4)
	}

	return domain.Classification{
		Category:           category,
		ConfidenceScore:    heuristicConfidence,
		EntertainmentScore: entertainment,
		DepthScore:         depth,
		ClickbaitScore:     clickbait,
	}
}

// capsRatio — доля заглавных символов в заголовке.
func capsRatio(title string) float64 {
	runes := []rune(title)
	if len(runes) == 0 {
		return 0
	}
	upper := 0
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper) / float64(len(runes))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
