package engine

import (
	"github.com/dquill/sprited/internal/engine/palette"
)

// Default canvas dimensions.
const (
	DefaultWidth  = 32
	DefaultHeight = 32
)

type settings struct {
	width, height  int
	pal            *palette.Palette
	maxCommands    int
	compressionAge int
	sessionID      string
}

// Option configures an Engine during creation.
type Option func(*settings)

// WithGridSize sets the canvas dimensions.
func WithGridSize(w, h int) Option {
	return func(s *settings) {
		if w > 0 && h > 0 {
			s.width, s.height = w, h
		}
	}
}

// WithPalette sets the initial palette.
func WithPalette(p *palette.Palette) Option {
	return func(s *settings) {
		if p != nil {
			s.pal = p
		}
	}
}

// WithMaxCommands sets the history log cap.
func WithMaxCommands(max int) Option {
	return func(s *settings) {
		if max > 0 {
			s.maxCommands = max
		}
	}
}

// WithCompressionAge sets how many steps behind the cursor an entry must be
// before it is compressed.
func WithCompressionAge(age int) Option {
	return func(s *settings) {
		if age > 0 {
			s.compressionAge = age
		}
	}
}

// WithSessionID sets the session identifier instead of generating one.
func WithSessionID(id string) Option {
	return func(s *settings) {
		if id != "" {
			s.sessionID = id
		}
	}
}
