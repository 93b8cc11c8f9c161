package utils

import "testing"

var locales = []string{"en", "pt"}

func TestDetermineLocale_QueryParamWins(t *testing.T) {
	got := DetermineLocale("pt-BR", "en-US,en;q=0.9,pt;q=0.8", locales, "en")
	if got != "pt" {
		t.Fatalf("want pt, got %s", got)
	}
}

func TestDetermineLocale_AcceptLanguageOrder(t *testing.T) {
	got := DetermineLocale("", "en-US,en;q=0.9,pt;q=0.8", locales, "en")
	if got != "en" {
		t.Fatalf("want en, got %s", got)
	}
}

func TestDetermineLocale_AcceptLanguagePrefersHigherQ(t *testing.T) {
	got := DetermineLocale("", "pt;q=0.9,en;q=0.85", locales, "en")
	if got != "pt" {
		t.Fatalf("want pt, got %s", got)
	}
}

func TestDetermineLocale_ZeroQIsExcluded(t *testing.T) {
	got := DetermineLocale("", "pt;q=0,en;q=0.1", locales, "pt")
	if got != "en" {
		t.Fatalf("want en, got %s", got)
	}
}

func TestDetermineLocale_DefaultFallback(t *testing.T) {
	got := DetermineLocale("", "fr-FR,es;q=0.9", locales, "en")
	if got != "en" {
		t.Fatalf("want en fallback, got %s", got)
	}
	if got := DetermineLocale("de", "", locales, "xx"); got != "en" {
		t.Fatalf("want first supported, got %s", got)
	}
}
