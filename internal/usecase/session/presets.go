package session

import "focus-feed/internal/domain"

// presetModes — стартовый набор фокус-режимов, создаваемый при первом
// обращении пользователя. Категории некоторых пресетов (NEWS_POLITICS,
// SPORTS, TRAVEL_EVENTS и т.п.) эвристический классификатор не выдаёт —
// это сохранено намеренно, см. DESIGN.md.
var presetModes = []domain.FocusMode{
	{
		Name:                  "Study Mode",
		Description:           "Focus on educational content only",
		AllowedCategories:     []domain.Category{domain.CategoryEducation},
		BlockedCategories:     []domain.Category{domain.CategoryEntertainment, domain.CategoryComedy, domain.CategoryGaming, domain.CategoryMusic, domain.CategoryScienceTech, domain.CategoryHowtoStyle},
		MinDurationSeconds:    180,
		MaxClickbaitScore:     0.5,
		MaxEntertainmentScore: 0.6,
		BlockShorts:           true,
		BlockedKeywords:       []string{"prank", "gone wrong", "challenge"},
	},
	{
		Name:                  "Deep Work",
		Description:           "Maximum focus with strict filtering",
		AllowedCategories:     []domain.Category{domain.CategoryEducation, domain.CategoryScienceTech},
		BlockedCategories:     []domain.Category{domain.CategoryEntertainment, domain.CategoryComedy, domain.CategoryGaming, domain.CategoryNewsPolitics, domain.CategoryMusic, domain.CategorySports},
		MinDurationSeconds:    300,
		MaxClickbaitScore:     0.3,
		MaxEntertainmentScore: 0.4,
		BlockShorts:           true,
		BlockTrending:         true,
		DailyTimeLimitMinutes: limit(60),
	},
	{
		Name:                  "Music Mode",
		Description:           "Background music only",
		AllowedCategories:     []domain.Category{domain.CategoryMusic},
		MaxClickbaitScore:     1.0,
		MaxEntertainmentScore: 1.0,
	},
	{
		Name:                  "Relax Mode",
		Description:           "Controlled leisure with time limits",
		BlockedCategories:     []domain.Category{domain.CategoryNewsPolitics},
		MaxClickbaitScore:     0.5,
		MaxEntertainmentScore: 0.8,
		BlockShorts:           true,
		DailyTimeLimitMinutes: limit(60),
	},
	{
		Name:                  "Gaming Mode",
		Description:           "Gaming content only",
		AllowedCategories:     []domain.Category{domain.CategoryGaming, domain.CategoryEntertainment},
		MaxClickbaitScore:     0.7,
		MaxEntertainmentScore: 1.0,
	},
	{
		Name:                  "News Mode",
		Description:           "Stay informed with news content",
		AllowedCategories:     []domain.Category{domain.CategoryNewsPolitics, domain.CategoryEducation},
		BlockedCategories:     []domain.Category{domain.CategoryEntertainment, domain.CategoryComedy, domain.CategoryGaming},
		MaxClickbaitScore:     0.4,
		MaxEntertainmentScore: 0.5,
		BlockShorts:           true,
	},
	{
		Name:                  "Fitness Mode",
		Description:           "Sports and fitness content",
		AllowedCategories:     []domain.Category{domain.CategorySports, domain.CategoryHowtoStyle, domain.CategoryPeopleBlogs},
		BlockedCategories:     []domain.Category{domain.CategoryGaming, domain.CategoryComedy},
		MaxClickbaitScore:     0.5,
		MaxEntertainmentScore: 0.7,
	},
	{
		Name:                  "Travel Mode",
		Description:           "Travel and exploration content",
		AllowedCategories:     []domain.Category{domain.CategoryTravelEvents, domain.CategoryPeopleBlogs, domain.CategoryFilmAnimation},
		BlockedCategories:     []domain.Category{domain.CategoryGaming, domain.CategoryNewsPolitics},
		MaxClickbaitScore:     0.5,
		MaxEntertainmentScore: 0.8,
	},
	{
		Name:                  "Tech Mode",
		Description:           "Technology and science content",
		AllowedCategories:     []domain.Category{domain.CategoryScienceTech, domain.CategoryEducation, domain.CategoryHowtoStyle},
		BlockedCategories:     []domain.Category{domain.CategoryEntertainment, domain.CategoryComedy},
		MinDurationSeconds:    300,
		MaxClickbaitScore:     0.4,
		MaxEntertainmentScore: 0.5,
		BlockShorts:           true,
	},
}

func limit(minutes int) *int {
	return &minutes
}
