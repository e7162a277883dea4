package analysis

import (
	"reflect"
	"strings"
	"testing"
)

func TestScanFallbackDeterministic(t *testing.T) {
	a := ScanFallback("wyd tonight")
	b := ScanFallback("wyd tonight")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("not deterministic: %v vs %v", a, b)
	}
	if a["headline"] != ScanFallbackHeadline {
		t.Fatalf("headline=%v", a["headline"])
	}
	if a["rewrite"] != ScanFallbackRewrite {
		t.Fatalf("rewrite=%v", a["rewrite"])
	}
	why, ok := a["why"].([]any)
	if !ok || len(why) != 3 {
		t.Fatalf("why=%v", a["why"])
	}
}

func TestScanFallbackEchoesInput(t *testing.T) {
	p := ScanFallback("hey   stranger\nsecond line")
	analysis, _ := p["analysis"].(string)
	if !strings.Contains(analysis, "“hey stranger”") {
		t.Fatalf("echo missing: %q", analysis)
	}
	if strings.Contains(analysis, "second line") {
		t.Fatalf("echo should only use first line: %q", analysis)
	}
}

func TestScanFallbackEmptyInput(t *testing.T) {
	p := ScanFallback("   \n  ")
	analysis, _ := p["analysis"].(string)
	if strings.Contains(analysis, "“") {
		t.Fatalf("empty input should not produce a quote: %q", analysis)
	}
	if analysis == "" {
		t.Fatalf("analysis empty")
	}
}

func TestPatternFallbackShape(t *testing.T) {
	p := PatternFallback("Them: maybe\nYou: ok")
	if p["headline"] != PatternFallbackHeadline {
		t.Fatalf("headline=%v", p["headline"])
	}
	if p["prognosis"] != PatternFallbackPrognosis {
		t.Fatalf("prognosis=%v", p["prognosis"])
	}
	fixes, ok := p["fixes"].([]any)
	if !ok || len(fixes) != 3 {
		t.Fatalf("fixes=%v", p["fixes"])
	}
	cycle, ok := p["cycle"].(map[string]any)
	if !ok {
		t.Fatalf("cycle=%T", p["cycle"])
	}
	for _, stage := range []string{"start", "mid", "end"} {
		if s, _ := cycle[stage].(string); s == "" {
			t.Fatalf("cycle %s empty", stage)
		}
	}
}

func TestInputEchoTruncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	echo := inputEcho(long, 120)
	if got := len([]rune(echo)); got != 121 {
		t.Fatalf("len=%d want 121 (120 + ellipsis)", got)
	}
	if !strings.HasSuffix(echo, "…") {
		t.Fatalf("echo=%q", echo)
	}
}
