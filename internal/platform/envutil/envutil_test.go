package envutil

import (
	"testing"
	"time"
)

func TestStr(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_STR", "  value  ")
	if got := Str("ENVUTIL_TEST_STR", "def"); got != "value" {
		t.Fatalf("Str=%q", got)
	}
	if got := Str("ENVUTIL_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("Str default=%q", got)
	}
	t.Setenv("ENVUTIL_TEST_BLANK", "   ")
	if got := Str("ENVUTIL_TEST_BLANK", "def"); got != "def" {
		t.Fatalf("blank should use default, got %q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "42")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 42 {
		t.Fatalf("Int=%d", got)
	}
	t.Setenv("ENVUTIL_TEST_INT", "not a number")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 7 {
		t.Fatalf("bad int should use default, got %d", got)
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"0", true, false},
		{"false", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Setenv("ENVUTIL_TEST_BOOL", tt.val)
		if got := Bool("ENVUTIL_TEST_BOOL", tt.def); got != tt.want {
			t.Fatalf("Bool(%q, %v)=%v want %v", tt.val, tt.def, got, tt.want)
		}
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_SECS", "15")
	if got := Seconds("ENVUTIL_TEST_SECS", time.Minute); got != 15*time.Second {
		t.Fatalf("Seconds=%v", got)
	}
	t.Setenv("ENVUTIL_TEST_SECS", "-3")
	if got := Seconds("ENVUTIL_TEST_SECS", time.Minute); got != time.Minute {
		t.Fatalf("non-positive should use default, got %v", got)
	}
}
