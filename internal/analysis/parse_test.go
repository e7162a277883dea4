package analysis

import "testing"

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantOK  bool
		wantKey string
		wantVal string
	}{
		{
			name:    "bare object",
			raw:     `{"headline":"a probe"}`,
			wantOK:  true,
			wantKey: "headline",
			wantVal: "a probe",
		},
		{
			name:    "prose wrapped",
			raw:     "Sure, here's the read:\n{\"headline\":\"a probe\"}\nHope that helps!",
			wantOK:  true,
			wantKey: "headline",
			wantVal: "a probe",
		},
		{
			name:    "stray brace before object",
			raw:     `the {dynamic} is clear: {"headline":"a probe"}`,
			wantOK:  true,
			wantKey: "headline",
			wantVal: "a probe",
		},
		{
			name:    "braces inside string values",
			raw:     `{"rewrite":"send {this} instead"}`,
			wantOK:  true,
			wantKey: "rewrite",
			wantVal: "send {this} instead",
		},
		{
			name:    "mojibake repaired before parse",
			raw:     "{\"headline\":\"donât chase\"}",
			wantOK:  true,
			wantKey: "headline",
			wantVal: "don’t chase",
		},
		{name: "no braces", raw: "no structure here at all", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
		{name: "close before open", raw: "} and then {", wantOK: false},
		{name: "unparseable braces", raw: "{not json at all}", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ExtractPayload(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ok=%v want %v (payload=%v)", ok, tt.wantOK, p)
			}
			if !tt.wantOK {
				return
			}
			got, _ := p[tt.wantKey].(string)
			if got != tt.wantVal {
				t.Fatalf("%s=%q want %q", tt.wantKey, got, tt.wantVal)
			}
		})
	}
}

func TestExtractPayloadNested(t *testing.T) {
	raw := `Verdict: {"headline":"loop","cycle":{"start":"a","mid":"b","end":"c"}}`
	p, ok := ExtractPayload(raw)
	if !ok {
		t.Fatalf("expected parse")
	}
	cycle, ok := p["cycle"].(map[string]any)
	if !ok {
		t.Fatalf("cycle=%T", p["cycle"])
	}
	if cycle["mid"] != "b" {
		t.Fatalf("mid=%v", cycle["mid"])
	}
}
