// Package logging filters the standard logger by the [LEVEL] tag at the start of each line.
package logging

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/hashicorp/logutils"
)

// Levels known to the filter, lowest first
var Levels = []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"}

// NewFilter returns a writer that drops lines below level.
// Unknown levels behave like INFO.
func NewFilter(level string, w io.Writer) *logutils.LevelFilter {
	return &logutils.LevelFilter{
		Levels:   Levels,
		MinLevel: normalize(level),
		Writer:   w,
	}
}

// Setup points the standard logger at a level filter over stderr
func Setup(level string) *logutils.LevelFilter {
	filter := NewFilter(level, os.Stderr)
	log.SetOutput(filter)
	log.SetFlags(log.LstdFlags)
	return filter
}

func normalize(level string) logutils.LogLevel {
	l := logutils.LogLevel(strings.ToUpper(strings.TrimSpace(level)))
	if l == "WARNING" {
		l = "WARN"
	}
	for _, known := range Levels {
		if l == known {
			return l
		}
	}
	return "INFO"
}

// SetLevel changes the level of a filter created by NewFilter or Setup
func SetLevel(filter *logutils.LevelFilter, level string) {
	filter.SetMinLevel(normalize(level))
}
