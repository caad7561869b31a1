package source

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"focus-feed/internal/domain"
)

func fixedDemo() *Demo {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Demo{now: func() time.Time { return fixed }}
}

func TestDemoMostPopularDeterministic(t *testing.T) {
	demo := fixedDemo()

	first, err := demo.MostPopular(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	second, err := demo.MostPopular(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if len(first.Items) != 10 {
		t.Fatalf("ожидали 10 видео, получили %d", len(first.Items))
	}
	if !reflect.DeepEqual(first.Items, second.Items) {
		t.Fatalf("повторный запрос должен давать ту же выдачу")
	}
}

func TestDemoPagination(t *testing.T) {
	demo := fixedDemo()

	first, _ := demo.MostPopular(context.Background(), 5, "")
	if first.NextPageToken != "1" {
		t.Fatalf("первая страница указывает на вторую, получили %q", first.NextPageToken)
	}

	second, _ := demo.MostPopular(context.Background(), 5, first.NextPageToken)
	if second.NextPageToken != "2" {
		t.Fatalf("вторая страница указывает на третью, получили %q", second.NextPageToken)
	}
	if first.Items[0].ID == second.Items[0].ID {
		t.Fatalf("страницы не должны совпадать")
	}
}

func TestDemoSearchNarrowsCategories(t *testing.T) {
	demo := fixedDemo()

	list, err := demo.Search(context.Background(), "EDUCATION MUSIC", 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(list.Items) != 10 {
		t.Fatalf("ожидали 10 видео, получили %d", len(list.Items))
	}
	for _, video := range list.Items {
		if !strings.HasPrefix(video.ID, "demo_") {
			t.Fatalf("синтетические видео несут префикс demo_, получили %q", video.ID)
		}
	}
}

func TestMatchCategories(t *testing.T) {
	matched := matchCategories("education music")
	if len(matched) != 2 {
		t.Fatalf("ожидали две категории, получили %v", matched)
	}
	if matched[0] != domain.CategoryEducation || matched[1] != domain.CategoryMusic {
		t.Fatalf("категории идут в порядке генератора: %v", matched)
	}

	all := matchCategories("golang concurrency")
	if len(all) != len(demoOrder) {
		t.Fatalf("запрос без имён категорий даёт полный набор, получили %v", all)
	}
}

func TestDemoVideoByIDRoundTrip(t *testing.T) {
	demo := fixedDemo()

	list, _ := demo.MostPopular(context.Background(), 3, "")
	id := list.Items[0].ID

	video, found, err := demo.VideoByID(context.Background(), id)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !found {
		t.Fatalf("видео с валидным demo-идентификатором должно находиться")
	}
	if video.ID != id {
		t.Fatalf("идентификатор должен сохраняться: %q против %q", video.ID, id)
	}

	again, _, _ := demo.VideoByID(context.Background(), id)
	if !reflect.DeepEqual(video, again) {
		t.Fatalf("восстановление по идентификатору детерминировано")
	}
}

func TestDemoVideoByIDUnknown(t *testing.T) {
	demo := fixedDemo()

	_, found, err := demo.VideoByID(context.Background(), "yt_abc123")
	if err != nil || found {
		t.Fatalf("чужой идентификатор не находится: found=%v err=%v", found, err)
	}

	_, found, _ = demo.VideoByID(context.Background(), "demo_zzzz")
	if found {
		t.Fatalf("нечитаемый сид не находится")
	}
}
