// Package speech pronounces words through an external text-to-speech
// command. The language is guessed from the script of the text so that
// Japanese, Chinese and Korean words get the right voice.
package speech

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrUnsupported means no speech command is configured.
var ErrUnsupported = errors.New("speech: no speech command configured")

// Player runs a text-to-speech command. One utterance plays at a time;
// starting a new one cancels whatever is still playing.
type Player struct {
	mu       sync.Mutex
	speaking bool
	cancel   context.CancelFunc
	gen      uint64

	command string
	logger  *zap.Logger

	// run executes the backend command. Tests swap it out.
	run func(ctx context.Context, name string, args ...string) error
}

// NewPlayer creates a player around command, a template like
// "espeak-ng -v {lang} {text}". The {lang} and {text} placeholders are
// replaced per utterance; a template without {text} gets the text
// appended as the final argument. An empty or blank command disables
// speech.
func NewPlayer(command string, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	command = strings.TrimSpace(command)
	return &Player{
		command: command,
		logger:  logger,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Speaking reports whether an utterance is currently playing.
func (p *Player) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

// Speak pronounces text, blocking until the backend command exits. An
// utterance already in flight is cancelled first; its Speak call then
// returns nil since being superseded is not a failure.
func (p *Player) Speak(ctx context.Context, text string) error {
	if p.command == "" {
		p.logger.Warn("speech requested but no command configured")
		return ErrUnsupported
	}

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.speaking = true
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	name, args := p.buildCommand(text)
	err := p.run(ctx, name, args...)

	p.mu.Lock()
	current := p.gen == gen
	if current {
		p.speaking = false
		p.cancel = nil
	}
	p.mu.Unlock()
	cancel()

	if !current || err == nil {
		return nil
	}
	p.logger.Warn("speech command failed",
		zap.String("command", name),
		zap.Error(err))
	return err
}

func (p *Player) buildCommand(text string) (string, []string) {
	lang := DetectLanguage(text)
	parts := strings.Fields(p.command)
	name := parts[0]

	var args []string
	sawText := false
	for _, part := range parts[1:] {
		if strings.Contains(part, "{text}") {
			sawText = true
		}
		part = strings.ReplaceAll(part, "{lang}", lang)
		part = strings.ReplaceAll(part, "{text}", text)
		args = append(args, part)
	}
	if !sawText {
		args = append(args, text)
	}
	return name, args
}

// DetectLanguage guesses a speech language tag from the script of the
// text. Kana wins over han so mixed Japanese text is not mistaken for
// Chinese; han alone reads as Chinese.
func DetectLanguage(text string) string {
	var hasKana, hasHangul, hasHan bool
	for _, r := range text {
		switch {
		case r >= 0x3040 && r <= 0x30FF: // hiragana + katakana
			hasKana = true
		case r >= 0xAC00 && r <= 0xD7AF || r >= 0x1100 && r <= 0x11FF:
			hasHangul = true
		case r >= 0x4E00 && r <= 0x9FFF:
			hasHan = true
		}
	}
	switch {
	case hasKana:
		return "ja-JP"
	case hasHangul:
		return "ko-KR"
	case hasHan:
		return "zh-CN"
	default:
		return "en-US"
	}
}
