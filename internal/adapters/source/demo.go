package source

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"focus-feed/internal/domain"
)

// Demo — синтетический источник видео, подменяющий внешний API, когда тот
// не настроен или исчерпал квоту. Выдача детерминирована: сид зависит от
// пятиминутного окна времени и номера страницы, поэтому повторный запрос
// той же страницы возвращает те же видео.
type Demo struct {
	now func() time.Time
}

// NewDemo создаёт синтетический источник.
func NewDemo() *Demo {
	return &Demo{now: time.Now}
}

var _ domain.VideoSource = (*Demo)(nil)

const demoIDPrefix = "demo_"

// Шаблоны заголовков подобраны так, чтобы эвристический классификатор
// относил сгенерированные видео к соответствующей категории.
var demoTemplates = map[domain.Category][]string{
	domain.CategoryEducation: {
		"%s Tutorial for Beginners",
		"Learn %s in 1 Hour",
		"%s Full Course",
		"Master %s Step by Step",
		"Introduction to %s",
		"%s Crash Course",
	},
	domain.CategoryScienceTech: {
		"How %s Works",
		"The Science of %s",
		"%s Explained Simply",
		"The Future of %s",
		"Understanding %s",
		"Why %s Matters",
	},
	domain.CategoryHowtoStyle: {
		"How to %s - Complete Guide",
		"%s Tips for Beginners",
		"DIY %s Tutorial",
		"Easy Ways to %s",
		"%s Step by Step",
	},
	domain.CategoryMusic: {
		"%s Music for Study",
		"Chill %s Playlist",
		"Best %s Hits 2024",
		"%s Mix - 1 Hour",
		"Relaxing %s Music",
	},
	domain.CategoryGaming: {
		"%s Gameplay - Full Walkthrough",
		"%s Tips and Tricks",
		"Best %s Strategies",
		"%s Stream Highlights",
		"%s Ranked Guide",
	},
	domain.CategoryEntertainment: {
		"Top 10 %s Moments",
		"Best of %s 2024",
		"%s Compilation",
		"%s Behind the Scenes",
		"%s Highlights",
	},
}

var demoSubjects = map[domain.Category][]string{
	domain.CategoryEducation:     {"Python", "JavaScript", "Machine Learning", "Data Science", "Mathematics", "History", "Economics"},
	domain.CategoryScienceTech:   {"Quantum Computing", "Blockchain", "Artificial Intelligence", "Robotics", "Nuclear Energy", "Neural Networks"},
	domain.CategoryHowtoStyle:    {"Cook Pasta", "Build Furniture", "Organize Your Desk", "Meditate", "Workout at Home"},
	domain.CategoryMusic:         {"Lofi", "Jazz", "Classical", "Ambient", "Hip Hop", "Acoustic"},
	domain.CategoryGaming:        {"Minecraft", "Fortnite", "Valorant", "Elden Ring", "Zelda", "Pokemon"},
	domain.CategoryEntertainment: {"Movie", "Travel", "Celebrity", "Magic", "Talent Show"},
}

var demoChannels = []string{
	"TechMaster", "CodeAcademy", "ScienceHub", "MusicVibes", "LearnDaily",
	"DigitalNomad", "StudyBuddy", "FutureTech", "ChillBeats", "EduPro",
	"GamePro", "DIYMaster", "EntertainNow",
}

// демо-категории в фиксированном порядке, чтобы выдача была стабильной.
var demoOrder = []domain.Category{
	domain.CategoryEducation,
	domain.CategoryScienceTech,
	domain.CategoryHowtoStyle,
	domain.CategoryMusic,
	domain.CategoryGaming,
	domain.CategoryEntertainment,
}

// Search генерирует видео, распределяя их по категориям из запроса.
// Запрос ленты — это имена разрешённых категорий, поэтому совпадающие
// имена сужают генерацию; иначе используются все категории.
func (d *Demo) Search(ctx context.Context, query string, maxResults int, pageToken string) (domain.VideoList, error) {
	categories := matchCategories(query)
	return d.generate(categories, maxResults, pageToken), nil
}

// MostPopular генерирует видео по всем категориям.
func (d *Demo) MostPopular(ctx context.Context, maxResults int, pageToken string) (domain.VideoList, error) {
	return d.generate(demoOrder, maxResults, pageToken), nil
}

// VideoByID восстанавливает синтетическое видео по его идентификатору.
// Генерация детерминирована сидом, зашитым в сам идентификатор.
func (d *Demo) VideoByID(ctx context.Context, videoID string) (domain.VideoMetadata, bool, error) {
	if !strings.HasPrefix(videoID, demoIDPrefix) {
		return domain.VideoMetadata{}, false, nil
	}
	seed, err := strconv.ParseInt(strings.TrimPrefix(videoID, demoIDPrefix), 16, 64)
	if err != nil {
		return domain.VideoMetadata{}, false, nil
	}
	rng := rand.New(rand.NewSource(seed))
	category := demoOrder[int(seed)%len(demoOrder)]
	video := d.makeVideo(rng, category, seed)
	video.ID = videoID
	return video, true, nil
}

func (d *Demo) generate(categories []domain.Category, maxResults int, pageToken string) domain.VideoList {
	if maxResults <= 0 {
		maxResults = 20
	}
	page := 0
	if pageToken != "" {
		if parsed, err := strconv.Atoi(pageToken); err == nil {
			page = parsed
		}
	}

	// Сид меняется каждые пять минут, чтобы лента выглядела живой.
	seed := d.now().Unix()/300 + int64(page)*1000
	rng := rand.New(rand.NewSource(seed))

	items := make([]domain.VideoMetadata, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		category := categories[i%len(categories)]
		videoSeed := seed + int64(i)
		items = append(items, d.makeVideo(rng, category, videoSeed))
	}
	return domain.VideoList{Items: items, NextPageToken: strconv.Itoa(page + 1)}
}

func (d *Demo) makeVideo(rng *rand.Rand, category domain.Category, seed int64) domain.VideoMetadata {
	templates := demoTemplates[category]
	subjects := demoSubjects[category]
	title := fmt.Sprintf(templates[rng.Intn(len(templates))], subjects[rng.Intn(len(subjects))])

	duration := 300 + rng.Intn(6900)
	return domain.VideoMetadata{
		ID:              fmt.Sprintf("%s%x", demoIDPrefix, seed),
		Title:           title,
		ChannelID:       fmt.Sprintf("channel_%d", rng.Intn(len(demoChannels))),
		ChannelTitle:    demoChannels[rng.Intn(len(demoChannels))],
		DurationSeconds: duration,
		Language:        "en",
		ViewCount:       int64(100_000 + rng.Intn(50_000_000)),
		LikeCount:       int64(1_000 + rng.Intn(500_000)),
		PublishedAt:     d.now().UTC().AddDate(0, 0, -(1 + rng.Intn(365))),
		ThumbnailURL:    fmt.Sprintf("https://picsum.photos/seed/%x/320/180", seed),
		IsShort:         duration < 60,
	}
}

// matchCategories сопоставляет слова запроса с именами категорий генератора.
func matchCategories(query string) []domain.Category {
	var matched []domain.Category
	upper := strings.ToUpper(query)
	for _, category := range demoOrder {
		if strings.Contains(upper, string(category)) {
			matched = append(matched, category)
		}
	}
	if len(matched) == 0 {
		return demoOrder
	}
	return matched
}
