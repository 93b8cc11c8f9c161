package utils

import (
	"testing"
	"time"
)

func TestSafeEnv(t *testing.T) {
	const key = "_NPS_TEST_SAFEENV"
	t.Setenv(key, "")
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv(key, "value")
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestSafeEnvTyped(t *testing.T) {
	t.Setenv("_NPS_TEST_INT", "7")
	t.Setenv("_NPS_TEST_BAD_INT", "seven")
	t.Setenv("_NPS_TEST_BOOL", "true")
	t.Setenv("_NPS_TEST_DUR", "90s")
	t.Setenv("_NPS_TEST_BAD_DUR", "soon")

	if got := SafeEnvInt("_NPS_TEST_INT", 1); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := SafeEnvInt("_NPS_TEST_BAD_INT", 1); got != 1 {
		t.Fatalf("expected fallback 1, got %d", got)
	}
	if got := SafeEnvBool("_NPS_TEST_BOOL", false); !got {
		t.Fatalf("expected true")
	}
	if got := SafeEnvDuration("_NPS_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
	if got := SafeEnvDuration("_NPS_TEST_BAD_DUR", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
