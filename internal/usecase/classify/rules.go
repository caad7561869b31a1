package classify

import "focus-feed/internal/domain"

// cascadeStage — одна ступень эвристического каскада.
// Ступени проверяются в порядке объявления; внутри ступени побеждает
// первое совпавшее ключевое слово. Ступень срабатывает только пока
// категория остаётся категорией по умолчанию, поэтому более поздняя
// ступень никогда не перетирает результат более ранней.
type cascadeStage struct {
	category      domain.Category
	keywords      []string
	entertainment float64
	depth         float64
	// matchChannel ограничивает поиск названием канала.
	matchChannel bool
	// nudgeOnly корректирует оценки, не меняя категорию.
	nudgeOnly bool
}

// cascade — таблица ступеней каскада. Добавление категории — изменение
// данных, а не управляющей логики.
var cascade = []cascadeStage{
	{
		category:      domain.CategoryMusic,
		entertainment: 0.8,
		depth:         0.2,
		keywords: []string{
			"song", "music", "album", "concert", "lyrics", "lyrical", "audio",
			"official video", "official audio", "music video", "full song",
			"video song", "vedio song",
			"lofi", "lo-fi", "hip hop", "rap", "rock", "pop", "jazz", "classical",
			"edm", "dubstep", "remix", "cover", "acoustic", "instrumental",
			"tollywood", "bollywood", "kollywood", "sandalwood",
			"telugu", "hindi", "tamil", "kannada", "malayalam", "bhojpuri",
			"item song", "romantic song", "melody", "gaana", "gana",
			"promo song", "title song", "theme song", "trending song",
			"singer", "vocalist", "rapper", "dj", "producer",
			"beats", "track", "playlist", "mixtape",
			"live performance", "stage", "concert", "mtv", "spotify", "gaana",
		},
	},
	{
		category:      domain.CategoryMusic,
		matchChannel:  true,
		entertainment: 0.7,
		depth:         0.3,
		keywords: []string{
			"music", "records", "audio", "songs", "entertainment", "media",
			"films", "pictures", "studios", "mangavaram", "lahari", "aditya",
			"zee", "t-series", "sony", "tips", "saregama", "eros",
		},
	},
	{
		category:      domain.CategoryGaming,
		entertainment: 0.8,
		depth:         0.3,
		keywords: []string{
			"gameplay", "gaming", "playthrough", "stream", "gamer", "game",
			"walkthrough", "let's play", "esports", "twitch", "streamer",
			"minecraft", "fortnite", "valorant", "gta", "cod", "pubg",
			"elden ring", "zelda", "pokemon", "nintendo", "playstation", "xbox",
			"speedrun", "pro player", "rank", "competitive",
		},
	},
	{
		category:      domain.CategoryComedy,
		entertainment: 0.9,
		depth:         0.1,
		keywords: []string{
			"comedy", "funny", "laugh", "humor", "joke", "stand up", "skit",
			"prank", "roast", "meme", "compilation", "try not to laugh",
			"fails", "bloopers", "reaction", "challenge",
		},
	},
	{
		nudgeOnly:     true,
		entertainment: 0.7,
		depth:         0.3,
		keywords: []string{
			"movie", "film", "trailer", "teaser", "scenes", "clips",
			"vlog", "day in", "haul", "unboxing", "reaction",
			"celebrity", "interview", "talk show", "reality", "drama",
		},
	},
	{
		category:      domain.CategoryEducation,
		entertainment: 0.2,
		depth:         0.8,
		keywords: []string{
			"tutorial", "course", "lecture", "lesson", "learn", "teaching",
			"education", "educational", "academy", "university", "college",
			"programming", "coding", "developer", "software development",
			"science", "physics", "chemistry", "mathematics", "biology",
			"history", "geography", "economics", "psychology",
			"certification", "exam prep", "study with me", "study tips",
		},
	},
	{
		category:      domain.CategoryScienceTech,
		entertainment: 0.3,
		depth:         0.7,
		keywords: []string{
			"technology", "tech review", "python", "javascript", "java",
			"machine learning", "ai", "artificial intelligence", "data science",
			"cloud", "devops", "kubernetes", "docker", "programming tutorial",
			"code", "developer", "engineering", "computer science",
		},
	},
	{
		category:      domain.CategoryHowtoStyle,
		entertainment: 0.4,
		depth:         0.6,
		keywords: []string{
			"how to", "diy", "tips", "tricks", "guide", "step by step",
			"recipe", "cooking", "baking", "makeup", "fashion", "style",
			"workout", "fitness", "yoga", "meditation", "self improvement",
		},
	},
}

// clickbaitPhrases поднимают clickbait_score до 0.7 при первом совпадении.
var clickbaitPhrases = []string{
	"you won't believe", "gone wrong", "shocking", "exposed",
	"prank", "😱", "🔥", "secret", "revealed", "must see",
	"insane", "crazy", "epic fail", "best ever", "unbelievable",
}

// Пороговые значения каскада.
const (
	shortDurationSeconds = 60
	longDurationSeconds  = 1200

	defaultClickbaitScore     = 0.1
	defaultEntertainmentScore = 0.5
	defaultDepthScore         = 0.5

	// Умеренная уверенность эвристики отличает её от LLM-пути.
	heuristicConfidence = 0.6

	descriptionScanLimit = 500
)
