// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide structured logger. The long
// fetch and classification loops log progress events (pages fetched, retries,
// checkpoints) through zerolog; human-facing command summaries stay on plain
// writers.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console-format zerolog logger writing to w. Unknown level
// strings fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}
