// Package sound announces expired timers.
package sound

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"hg-go/internal/config"
	"hg-go/internal/hg"
)

const bel = '\a'

// Bell rings the terminal bell. There is no audio output, so every sound
// name rings the same bell.
type Bell struct {
	mu      sync.Mutex
	w       io.Writer
	repeat  int
	enabled bool
}

var _ hg.Sound = (*Bell)(nil)

// NewBell creates a Bell writing to w, ringing repeat times per alert.
// When w is a file that is not a terminal the bell stays silent, so piped
// output is not polluted with control characters.
func NewBell(w io.Writer, repeat int) *Bell {
	if repeat < 1 {
		repeat = 1
	}
	enabled := true
	if f, ok := w.(*os.File); ok {
		enabled = term.IsTerminal(int(f.Fd()))
	}
	return &Bell{w: w, repeat: repeat, enabled: enabled}
}

func (b *Bell) Play(name string) error {
	if !b.enabled {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	buf := make([]byte, b.repeat)
	for i := range buf {
		buf[i] = bel
	}
	if _, err := b.w.Write(buf); err != nil {
		return fmt.Errorf("ringing bell for %q: %w", name, err)
	}
	return nil
}

// NewSoundFromConfig creates a Sound based on the configuration type.
func NewSoundFromConfig(cfg config.SoundConfig, w io.Writer) (hg.Sound, error) {
	switch cfg.Type {
	case "bell", "":
		return NewBell(w, cfg.Repeat), nil
	case "none":
		return hg.NopSound{}, nil
	default:
		return nil, fmt.Errorf("unknown sound type: %q", cfg.Type)
	}
}
