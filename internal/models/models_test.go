package models

import "testing"

func TestParseCategory(t *testing.T) {
	for _, raw := range []string{"Anime", "anime", "ANIME"} {
		category, err := ParseCategory(raw)
		if err != nil {
			t.Errorf("ParseCategory(%q) failed: %v", raw, err)
		}
		if category != CategoryAnime {
			t.Errorf("ParseCategory(%q) = %q, want canonical %q", raw, category, CategoryAnime)
		}
	}

	if _, err := ParseCategory("Podcast"); err == nil {
		t.Error("Expected an error for an unknown category")
	}
	if _, err := ParseCategory(""); err == nil {
		t.Error("Expected an error for an empty category")
	}
}

func TestParseSource(t *testing.T) {
	for _, source := range Sources() {
		parsed, err := ParseSource(source.String())
		if err != nil || parsed != source {
			t.Errorf("ParseSource(%q) = %q, %v", source, parsed, err)
		}
	}
	if _, err := ParseSource("imdb"); err == nil {
		t.Error("The source set is closed, imdb must be rejected")
	}
}

func TestIsSerializedVideo(t *testing.T) {
	expected := map[MediaCategory]bool{
		CategoryAnime:  true,
		CategorySeries: true,
		CategoryManga:  false,
		CategoryBook:   false,
		CategoryMovie:  false,
	}
	for category, want := range expected {
		if got := category.IsSerializedVideo(); got != want {
			t.Errorf("%s.IsSerializedVideo() = %v, want %v", category, got, want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "Romaji Title", "Native"); got != "Romaji Title" {
		t.Errorf("Expected the first usable candidate, got %q", got)
	}
	if got := FirstNonEmpty("", "   "); got != PlaceholderTitle {
		t.Errorf("Expected the placeholder, got %q", got)
	}
	if got := FirstNonEmpty(); got != PlaceholderTitle {
		t.Errorf("Expected the placeholder for no candidates, got %q", got)
	}
}

func TestDedupTitles(t *testing.T) {
	// Case and whitespace variants collapse; the primary never repeats as
	// an alternate; half-width katakana is distinct content and survives.
	alternates := DedupTitles("Shingeki no Kyojin", []string{
		"進撃の巨人",
		"Attack on Titan",
		"ATTACK ON TITAN",
		"  Attack on Titan  ",
		"Shingeki no Kyojin",
		"ｼﾝｹﾞｷﾉｷｮｼﾞﾝ",
		"",
	})

	want := []string{"進撃の巨人", "Attack on Titan", "ｼﾝｹﾞｷﾉｷｮｼﾞﾝ"}
	if len(alternates) != len(want) {
		t.Fatalf("Expected %d alternates, got %v", len(want), alternates)
	}
	for i, title := range want {
		if alternates[i] != title {
			t.Errorf("alternates[%d] = %q, want %q", i, alternates[i], title)
		}
	}
}

func TestDedupTitles_WidthFolding(t *testing.T) {
	// Full-width Latin is the same title as its ASCII spelling.
	alternates := DedupTitles("NARUTO", []string{"ＮＡＲＵＴＯ", "Naruto"})
	if len(alternates) != 0 {
		t.Errorf("Width and case variants of the primary must be dropped, got %v", alternates)
	}
}
