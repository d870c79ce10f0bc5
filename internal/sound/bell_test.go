package sound

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hg-go/internal/config"
	"hg-go/internal/hg"
)

func TestBell_Play(t *testing.T) {
	tests := []struct {
		name   string
		repeat int
		want   string
	}{
		{name: "once", repeat: 1, want: "\a"},
		{name: "three times", repeat: 3, want: "\a\a\a"},
		{name: "zero rings once", repeat: 0, want: "\a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			b := NewBell(&buf, tt.repeat)

			if err := b.Play("bell"); err != nil {
				t.Fatalf("Play() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Play() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBell_SilentWhenNotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	defer f.Close()

	b := NewBell(f, 1)
	if err := b.Play("bell"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("bell wrote %d bytes to a regular file", info.Size())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestBell_WriteError(t *testing.T) {
	b := NewBell(failingWriter{}, 1)
	if err := b.Play("bell"); err == nil {
		t.Error("Play() expected error from failing writer")
	}
}

func TestNewSoundFromConfig(t *testing.T) {
	t.Run("bell", func(t *testing.T) {
		var buf bytes.Buffer
		s, err := NewSoundFromConfig(config.SoundConfig{Type: "bell", Repeat: 2}, &buf)
		if err != nil {
			t.Fatalf("NewSoundFromConfig() error = %v", err)
		}
		if _, ok := s.(*Bell); !ok {
			t.Fatalf("NewSoundFromConfig() = %T, want *Bell", s)
		}
		if err := s.Play("bell"); err != nil {
			t.Fatalf("Play() error = %v", err)
		}
		if buf.String() != "\a\a" {
			t.Errorf("Play() wrote %q, want %q", buf.String(), "\a\a")
		}
	})

	t.Run("default is bell", func(t *testing.T) {
		s, err := NewSoundFromConfig(config.SoundConfig{}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("NewSoundFromConfig() error = %v", err)
		}
		if _, ok := s.(*Bell); !ok {
			t.Errorf("NewSoundFromConfig() = %T, want *Bell", s)
		}
	})

	t.Run("none", func(t *testing.T) {
		s, err := NewSoundFromConfig(config.SoundConfig{Type: "none"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("NewSoundFromConfig() error = %v", err)
		}
		if _, ok := s.(hg.NopSound); !ok {
			t.Errorf("NewSoundFromConfig() = %T, want hg.NopSound", s)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewSoundFromConfig(config.SoundConfig{Type: "trumpet"}, &bytes.Buffer{}); err == nil {
			t.Error("NewSoundFromConfig() expected error for unknown type")
		}
	})
}
