package suggest

import "testing"

func TestSuggestEmptyQuery(t *testing.T) {
	if got := Suggest(""); got != nil {
		t.Fatalf("пустой запрос даёт пустую выдачу, получили %v", got)
	}
	if got := Suggest("   "); got != nil {
		t.Fatalf("пробельный запрос даёт пустую выдачу, получили %v", got)
	}
}

func TestSuggestPrefixBeforeContains(t *testing.T) {
	got := Suggest("music")
	if len(got) == 0 {
		t.Fatalf("ожидали подсказки по запросу music")
	}
	if got[0] != "music playlist" {
		t.Fatalf("подсказка с префиксом идёт первой, получили %q", got[0])
	}
	for i := 2; i < len(got); i++ {
		if len(got[i-1]) > len(got[i]) {
			t.Fatalf("внутри группы короткие идут раньше: %q перед %q", got[i-1], got[i])
		}
	}
}

func TestSuggestContainsMatch(t *testing.T) {
	got := Suggest("tutorial")
	if len(got) != 4 {
		t.Fatalf("ожидали 4 подсказки, получили %d: %v", len(got), got)
	}
	if got[0] != "react tutorial" {
		t.Fatalf("самая короткая подсказка идёт первой, получили %q", got[0])
	}
}

func TestSuggestCaseInsensitive(t *testing.T) {
	got := Suggest("PYTHON")
	if len(got) != 3 {
		t.Fatalf("регистр запроса не важен, получили %v", got)
	}
	if got[0] != "python tutorial" {
		t.Fatalf("ожидали python tutorial первым, получили %q", got[0])
	}
}

func TestSuggestCapped(t *testing.T) {
	got := Suggest("i")
	if len(got) != maxSuggestions {
		t.Fatalf("выдача ограничена %d подсказками, получили %d", maxSuggestions, len(got))
	}
}

func TestSuggestNoMatch(t *testing.T) {
	got := Suggest("квантовая хромодинамика")
	if len(got) != 0 {
		t.Fatalf("без совпадений выдача пуста, получили %v", got)
	}
}
