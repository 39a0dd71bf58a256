package render

import (
	"strings"
	"testing"

	"accord/internal/types"
)

func TestResolveLocale(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "en"},
		{"en", "en"},
		{"en-US", "en"},
		{"es", "es"},
		{"es-MX", "es"},
		{"fr", "en"},
		{"not a locale!!", "en"},
	}
	for _, tc := range cases {
		if got := ResolveLocale(tc.in); got != tc.want {
			t.Errorf("ResolveLocale(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCatalogCoversEveryKindInEveryLocale(t *testing.T) {
	args := Args{
		Name:          "Sam",
		OtherName:     "Alex",
		DaysRemaining: 2,
		DaysInactive:  8,
		NewLikes:      3,
		LikesReceived: 5,
		MatchesMade:   1,
	}
	for locale := range catalog {
		for _, kind := range types.AllNotificationKinds {
			if _, ok := catalog[locale][kind]; !ok {
				t.Errorf("locale %q has no entry for kind %q", locale, kind)
				continue
			}
			content := Render(kind, locale, args)
			if content.Title == "" || content.Body == "" {
				t.Errorf("Render(%q, %q) produced empty content", kind, locale)
			}
		}
	}
}

func TestEnglishPluralization(t *testing.T) {
	one := Render(types.KindTrialEngagement, "en", Args{LikesReceived: 1, MatchesMade: 1})
	if !strings.Contains(one.Body, "1 person has") {
		t.Errorf("singular body = %q, want it to contain %q", one.Body, "1 person has")
	}
	if !strings.Contains(one.Body, "1 new match") {
		t.Errorf("singular body = %q, want it to contain %q", one.Body, "1 new match")
	}

	many := Render(types.KindTrialEngagement, "en", Args{LikesReceived: 3, MatchesMade: 2})
	if !strings.Contains(many.Body, "3 people have") {
		t.Errorf("plural body = %q, want it to contain %q", many.Body, "3 people have")
	}
	if !strings.Contains(many.Body, "2 new matches") {
		t.Errorf("plural body = %q, want it to contain %q", many.Body, "2 new matches")
	}
}

func TestInactiveBodyPrefersLikeCount(t *testing.T) {
	withLikes := Render(types.KindInactiveReminder, "en", Args{DaysInactive: 8, NewLikes: 2})
	if !strings.Contains(withLikes.Body, "2 new people have liked you") {
		t.Errorf("body = %q, want the like count surfaced", withLikes.Body)
	}

	noLikes := Render(types.KindInactiveReminder, "en", Args{DaysInactive: 8})
	if !strings.Contains(noLikes.Body, "8 days") {
		t.Errorf("body = %q, want the inactive day count surfaced", noLikes.Body)
	}
}

func TestRenderFallsBackForUnsupportedLocale(t *testing.T) {
	en := Render(types.KindSwipesRefreshed, "en", Args{})
	de := Render(types.KindSwipesRefreshed, "de", Args{})
	if de != en {
		t.Errorf("unsupported locale rendered %+v, want the English copy %+v", de, en)
	}
}
