package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "Question.Sector")
	if got != "Which sector do you work in?" {
		t.Errorf("T(Question.Sector) = %q", got)
	}

	got = T(ctx, "Urgency.ASAP")
	if got != "As soon as possible" {
		t.Errorf("T(Urgency.ASAP) = %q", got)
	}
}

func TestTranslateItalian(t *testing.T) {
	ctx := initLang(t, "it")

	got := T(ctx, "Question.Sector")
	if got != "In quale settore lavori?" {
		t.Errorf("T(Question.Sector) = %q", got)
	}

	got = T(ctx, "LeadReceived")
	if got != "Grazie! Ti contatteremo a breve." {
		t.Errorf("T(LeadReceived) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "Chat.AskEmail", map[string]any{"Name": "Giulia"})
	if got != "Nice to meet you, Giulia! What's the best email to reach you?" {
		t.Errorf("Td(Chat.AskEmail) = %q", got)
	}
}

func TestWithLangOverride(t *testing.T) {
	ctx := initLang(t, "it")
	ctx = WithLang(ctx, "en")

	got := T(ctx, "LeadReceived")
	if got != "Thank you! We'll be in touch shortly." {
		t.Errorf("T after WithLang(en) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
