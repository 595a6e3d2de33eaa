package speech

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct{ text, want string }{
		{"ねこ", "ja-JP"},
		{"カタカナ", "ja-JP"},
		{"漢字が好き", "ja-JP"}, // kana wins over han
		{"你好", "zh-CN"},
		{"안녕하세요", "ko-KR"},
		{"hello", "en-US"},
		{"", "en-US"},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.text); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestSpeakSubstitutesTemplate(t *testing.T) {
	p := NewPlayer("espeak-ng -v {lang} {text}", zap.NewNop())

	var gotName string
	var gotArgs []string
	p.run = func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	if err := p.Speak(context.Background(), "ねこ"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if gotName != "espeak-ng" {
		t.Errorf("expected espeak-ng, got %q", gotName)
	}
	if len(gotArgs) != 3 || gotArgs[1] != "ja-JP" || gotArgs[2] != "ねこ" {
		t.Errorf("unexpected args: %v", gotArgs)
	}
}

func TestSpeakAppendsTextWithoutPlaceholder(t *testing.T) {
	p := NewPlayer("say", zap.NewNop())

	var gotArgs []string
	p.run = func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return nil
	}

	if err := p.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "hello" {
		t.Errorf("expected text as final arg, got %v", gotArgs)
	}
}

func TestSpeakUnsupported(t *testing.T) {
	for _, command := range []string{"", "   ", "\t\n"} {
		p := NewPlayer(command, zap.NewNop())
		if err := p.Speak(context.Background(), "hello"); err != ErrUnsupported {
			t.Errorf("command %q: expected ErrUnsupported, got %v", command, err)
		}
	}
}

func TestSpeakCancelsPreviousUtterance(t *testing.T) {
	p := NewPlayer("say", zap.NewNop())

	started := make(chan struct{})
	var spoken []string
	var mu sync.Mutex
	p.run = func(ctx context.Context, name string, args ...string) error {
		mu.Lock()
		spoken = append(spoken, args[len(args)-1])
		first := len(spoken) == 1
		mu.Unlock()
		if first {
			close(started)
			// The first utterance plays until it is cancelled.
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Superseded utterances report success.
		if err := p.Speak(context.Background(), "first"); err != nil {
			t.Errorf("first Speak failed: %v", err)
		}
	}()

	<-started
	if !p.Speaking() {
		t.Error("expected Speaking() while utterance in flight")
	}
	if err := p.Speak(context.Background(), "second"); err != nil {
		t.Errorf("second Speak failed: %v", err)
	}
	wg.Wait()

	if p.Speaking() {
		t.Error("expected Speaking() to clear after utterances")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(spoken) != 2 || spoken[1] != "second" {
		t.Errorf("unexpected utterances: %v", spoken)
	}
}

func TestSpeakReportsBackendFailure(t *testing.T) {
	p := NewPlayer("say", zap.NewNop())
	want := context.DeadlineExceeded
	p.run = func(ctx context.Context, name string, args ...string) error {
		return want
	}
	if err := p.Speak(context.Background(), "hello"); err != want {
		t.Errorf("expected backend error, got %v", err)
	}
	if p.Speaking() {
		t.Error("expected Speaking() to clear after a failure")
	}
}
