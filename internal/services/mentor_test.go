package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hollowbyte/subtext-backend/internal/mentor"
	"github.com/hollowbyte/subtext-backend/internal/persona"
	"github.com/hollowbyte/subtext-backend/internal/platform/model"
	"github.com/hollowbyte/subtext-backend/internal/prompt"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

func newMentorService(t *testing.T, inv model.Invoker) MentorService {
	t.Helper()
	catalog := persona.DefaultCatalog()
	return NewMentorService(testLogger(t), prompt.NewBuilder(catalog), catalog, inv)
}

func TestExchangeFormatsModelReply(t *testing.T) {
	inv := &fakeInvoker{reply: model.Reply{
		Text:      "Stop orbiting them. Make one plan. Walk if they blur it.",
		Succeeded: true,
	}}
	svc := newMentorService(t, inv)

	before := time.Now().UTC()
	res, err := svc.Exchange(context.Background(), types.GenerationRequest{
		RawInput:   "she said maybe",
		PersonaKey: "viper",
		Preset:     "advise",
	})
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if res.Fallback {
		t.Fatalf("should not be fallback: %+v", res)
	}
	if res.Mentor != "viper" || res.Preset != "advise" {
		t.Fatalf("mentor=%q preset=%q", res.Mentor, res.Preset)
	}
	if !strings.Contains(res.Response, "Principle: ") {
		t.Fatalf("advise contract not enforced:\n%s", res.Response)
	}
	if res.TimestampUTC.Before(before) || res.TimestampUTC.Location() != time.UTC {
		t.Fatalf("timestamp=%v", res.TimestampUTC)
	}
	if res.ViralScore < 0 || res.ViralScore > 100 {
		t.Fatalf("viral=%d", res.ViralScore)
	}
}

func TestExchangeFallsBackOnFailedCall(t *testing.T) {
	inv := &fakeInvoker{reply: model.Reply{
		Succeeded:  false,
		HTTPStatus: 500,
		ErrorKind:  model.ErrKindTransient,
	}}
	svc := newMentorService(t, inv)

	res, err := svc.Exchange(context.Background(), types.GenerationRequest{
		RawInput: "help",
		Preset:   "drill",
	})
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if !res.Fallback {
		t.Fatalf("expected fallback")
	}
	want := mentor.Format(persona.PresetDrill, mentor.FallbackText(persona.PresetDrill))
	if res.Response != want {
		t.Fatalf("response=%q want formatted canonical fallback", res.Response)
	}
}

func TestExchangeFallsBackOnEmptyReply(t *testing.T) {
	inv := &fakeInvoker{reply: model.Reply{Text: "   \n ", Succeeded: true}}
	svc := newMentorService(t, inv)

	res, err := svc.Exchange(context.Background(), types.GenerationRequest{
		RawInput: "help",
		Preset:   "chat",
	})
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if !res.Fallback {
		t.Fatalf("whitespace reply should fall back")
	}
}

func TestExchangeUnknownPresetUsesChat(t *testing.T) {
	inv := &fakeInvoker{reply: model.Reply{Text: "Sure thing", Succeeded: true}}
	svc := newMentorService(t, inv)

	res, err := svc.Exchange(context.Background(), types.GenerationRequest{
		RawInput: "hi",
		Preset:   "monologue",
	})
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if res.Preset != "chat" {
		t.Fatalf("preset=%q", res.Preset)
	}
	if !strings.HasSuffix(strings.TrimSpace(res.Response), "?") {
		t.Fatalf("chat contract not enforced:\n%s", res.Response)
	}
}

func TestStreamEmitsOrderedChunksThenResult(t *testing.T) {
	inv := &fakeInvoker{reply: model.Reply{
		Text:      strings.Repeat("Keep the frame and name one concrete plan. ", 12),
		Succeeded: true,
	}}
	svc := newMentorService(t, inv)

	var chunks []string
	res, err := svc.Stream(context.Background(), types.GenerationRequest{
		RawInput: "long one please",
		Preset:   "chat",
	}, func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("chunks=%d, expected the long reply to split", len(chunks))
	}
	squash := func(s string) string {
		s = strings.ReplaceAll(s, " ", "")
		return strings.ReplaceAll(s, "\n", "")
	}
	if squash(strings.Join(chunks, "")) != squash(res.Response) {
		t.Fatalf("reassembled chunks differ from response")
	}
}

func TestStreamEmitsFallbackOnFailure(t *testing.T) {
	inv := &fakeInvoker{reply: model.Reply{Succeeded: false, ErrorKind: model.ErrKindTerminal}}
	svc := newMentorService(t, inv)

	var chunks []string
	res, err := svc.Stream(context.Background(), types.GenerationRequest{
		RawInput: "help",
		Preset:   "roleplay",
	}, func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !res.Fallback {
		t.Fatalf("expected fallback result")
	}
	if len(chunks) == 0 {
		t.Fatalf("fallback must still stream chunks")
	}
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{"empty", "   ", 10, nil},
		{"fits", "short", 10, []string{"short"}},
		{"breaks on space", "aaa bbb ccc", 4, []string{"aaa", "bbb", "ccc"}},
		{"long word hard cut", "aaaaaaaaaa", 4, []string{"aaaa", "aaaa", "aa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitChunks(tt.text, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("chunks=%q want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("[%d]=%q want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
