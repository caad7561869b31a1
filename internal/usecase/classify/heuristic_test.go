package classify

import (
	"testing"

	"focus-feed/internal/domain"
)

func video(title string) domain.VideoMetadata {
	return domain.VideoMetadata{ID: "v1", Title: title, DurationSeconds: 600}
}

func TestHeuristicCategories(t *testing.T) {
	cases := []struct {
		title    string
		category domain.Category
	}{
		{"Official Music Video - New Album", domain.CategoryMusic},
		{"Minecraft gameplay episode 4", domain.CategoryGaming},
		{"Try not to laugh challenge", domain.CategoryComedy},
		{"Python tutorial for beginners", domain.CategoryEducation},
		{"Kubernetes and devops explained", domain.CategoryScienceTech},
		{"How to bake sourdough step by step", domain.CategoryHowtoStyle},
		{"Calm morning walking tour", domain.CategoryEntertainment},
	}
	for _, tc := range cases {
		got := Heuristic(video(tc.title))
		if got.Category != tc.category {
			t.Fatalf("заголовок %q: ожидали категорию %s, получили %s", tc.title, tc.category, got.Category)
		}
	}
}

func TestHeuristicEarlierStageWins(t *testing.T) {
	// Музыка объявлена раньше образования и не должна перетираться.
	got := Heuristic(video("Official music video tutorial"))
	if got.Category != domain.CategoryMusic {
		t.Fatalf("ожидали MUSIC, получили %s", got.Category)
	}
}

func TestHeuristicChannelStage(t *testing.T) {
	v := domain.VideoMetadata{ID: "v1", Title: "Latest release", ChannelTitle: "T-Series", DurationSeconds: 600}
	got := Heuristic(v)
	if got.Category != domain.CategoryMusic {
		t.Fatalf("ожидали MUSIC по названию канала, получили %s", got.Category)
	}
}

func TestHeuristicNudgeKeepsDefaultCategory(t *testing.T) {
	got := Heuristic(video("Celebrity interview on a talk show"))
	if got.Category != domain.CategoryEntertainment {
		t.Fatalf("ожидали ENTERTAINMENT, получили %s", got.Category)
	}
	if got.EntertainmentScore != 0.7 {
		t.Fatalf("ожидали скорректированную оценку 0.7, получили %v", got.EntertainmentScore)
	}
}

func TestHeuristicShortVideoAdjustment(t *testing.T) {
	v := video("Random evening clip")
	v.DurationSeconds = 30
	got := Heuristic(v)
	if got.EntertainmentScore < 0.7 {
		t.Fatalf("короткое видео должно поднимать развлекательность, получили %v", got.EntertainmentScore)
	}
	if got.DepthScore > 0.3 {
		t.Fatalf("короткое видео должно снижать глубину, получили %v", got.DepthScore)
	}
}

func TestHeuristicShortMusicNotAdjusted(t *testing.T) {
	v := video("Official audio teaser")
	v.DurationSeconds = 30
	got := Heuristic(v)
	if got.EntertainmentScore != 0.8 {
		t.Fatalf("короткая музыка сохраняет оценку ступени, получили %v", got.EntertainmentScore)
	}
}

func TestHeuristicLongVideoDepthBonus(t *testing.T) {
	v := video("Physics lecture on thermodynamics")
	v.DurationSeconds = 3600
	got := Heuristic(v)
	if got.DepthScore != 1.0 {
		t.Fatalf("длинная лекция должна получить глубину 1.0, получили %v", got.DepthScore)
	}
}

func TestHeuristicClickbait(t *testing.T) {
	got := Heuristic(video("You won't believe what happened"))
	if got.ClickbaitScore != 0.7 {
		t.Fatalf("ожидали clickbait 0.7, получили %v", got.ClickbaitScore)
	}

	got = Heuristic(video("THIS IS ALL CAPS TITLE"))
	if got.ClickbaitScore < 0.5 {
		t.Fatalf("капс должен поднимать clickbait минимум до 0.5, получили %v", got.ClickbaitScore)
	}

	got = Heuristic(video("What is inside??? "))
	if got.ClickbaitScore < 0.4 {
		t.Fatalf("тройная пунктуация должна поднимать clickbait до 0.4, получили %v", got.ClickbaitScore)
	}

	got = Heuristic(video("Calm walking tour"))
	if got.ClickbaitScore != 0.1 {
		t.Fatalf("обычный заголовок получает базовый clickbait 0.1, получили %v", got.ClickbaitScore)
	}
}

func TestHeuristicScoresInRange(t *testing.T) {
	titles := []string{
		"Official Music Video", "Minecraft speedrun", "Comedy skit compilation",
		"University lecture", "AI and machine learning", "How to fix a sink",
		"SHOCKING!!! You won't believe this 🔥", "",
	}
	for _, title := range titles {
		for _, duration := range []int{15, 600, 7200} {
			v := video(title)
			v.DurationSeconds = duration
			got := Heuristic(v)
			for name, score := range map[string]float64{
				"confidence":    got.ConfidenceScore,
				"entertainment": got.EntertainmentScore,
				"depth":         got.DepthScore,
				"clickbait":     got.ClickbaitScore,
			} {
				if score < 0 || score > 1 {
					t.Fatalf("оценка %s вне [0,1]: %v (заголовок %q)", name, score, title)
				}
			}
		}
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	v := domain.VideoMetadata{
		ID: "v1", Title: "Go programming tutorial",
		Tags: []string{"coding", "golang"}, DurationSeconds: 1800,
	}
	first := Heuristic(v)
	second := Heuristic(v)
	if first != second {
		t.Fatalf("повторный вызов дал другой результат: %+v против %+v", first, second)
	}
}
