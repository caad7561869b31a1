package suggest

import (
	"sort"
	"strings"
)

// maxSuggestions — предел выдачи подсказок.
const maxSuggestions = 8

// baseSuggestions — статический словарь подсказок поиска.
// Продакшен-вариант ходил бы в suggestion API, здесь достаточно словаря.
var baseSuggestions = []string{
	"python tutorial",
	"python for beginners",
	"python crash course",
	"programming tutorial",
	"machine learning",
	"data science",
	"web development",
	"react tutorial",
	"javascript tutorial",
	"computer science",
	"coding for beginners",
	"learn to code",
	"algorithms explained",
	"system design",

	"music playlist",
	"lofi beats",
	"study music",
	"relaxing music",
	"classical music",
	"jazz music",
	"pop music",
	"workout playlist",

	"funny videos",
	"comedy sketches",
	"stand up comedy",
	"movie trailers",
	"gaming highlights",
	"best moments",

	"productivity tips",
	"study tips",
	"how to focus",
	"time management",
	"morning routine",
}

// Suggest возвращает до восьми подсказок по префиксу запроса.
// Подсказки, начинающиеся с запроса, идут раньше содержащих его,
// при равенстве короткие раньше длинных.
func Suggest(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	matching := make([]string, 0, maxSuggestions)
	for _, s := range baseSuggestions {
		if strings.HasPrefix(s, q) || strings.Contains(s, q) {
			matching = append(matching, s)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		pi, pj := strings.HasPrefix(matching[i], q), strings.HasPrefix(matching[j], q)
		if pi != pj {
			return pi
		}
		return len(matching[i]) < len(matching[j])
	})

	if len(matching) > maxSuggestions {
		matching = matching[:maxSuggestions]
	}
	return matching
}
