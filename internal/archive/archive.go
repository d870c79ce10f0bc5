// Package archive reads and writes portable exports of stored timers.
package archive

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"hg-go/internal/timing"
)

// Version is the archive layout written by Encode.
const Version = 1

var (
	ErrUnknownFormat      = errors.New("unknown archive format")
	ErrUnsupportedVersion = errors.New("unsupported archive version")
)

// Format is an archive serialization.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks a format from a file extension, falling back to TOML.
func FormatFromPath(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return FormatTOML
}

// Archive is a set of exported timers.
type Archive struct {
	Version    int       `json:"version" toml:"version" yaml:"version"`
	ExportedAt time.Time `json:"exported_at" toml:"exported_at" yaml:"exported_at"`
	Timers     []Entry   `json:"timers" toml:"timers" yaml:"timers"`
}

// Entry is one exported timer.
type Entry struct {
	ID        string        `json:"id" toml:"id" yaml:"id"`
	CreatedAt time.Time     `json:"created_at" toml:"created_at" yaml:"created_at"`
	Timer     timing.Record `json:"timer" toml:"timer" yaml:"timer"`
}

// New creates an empty archive of the current version.
func New(exportedAt time.Time) *Archive {
	return &Archive{Version: Version, ExportedAt: exportedAt.Round(0)}
}

// Encode writes a in the given format.
func Encode(w io.Writer, a *Archive, f Format) error {
	switch f {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(a); err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
	case FormatCBOR:
		em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		if err != nil {
			return fmt.Errorf("creating cbor encoder: %w", err)
		}
		if err := em.NewEncoder(w).Encode(a); err != nil {
			return fmt.Errorf("encoding cbor: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return nil
}

// Decode reads an archive in the given format and checks its version.
func Decode(r io.Reader, f Format) (*Archive, error) {
	var a Archive
	switch f {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&a); err != nil {
			return nil, fmt.Errorf("decoding toml: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&a); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
	case FormatCBOR:
		if err := cbor.NewDecoder(r).Decode(&a); err != nil {
			return nil, fmt.Errorf("decoding cbor: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	if a.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.Version)
	}
	return &a, nil
}
