//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package language

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector classifies text into one of the supported languages.
// Implementations must be total and safe for concurrent use.
type Detector interface {
	Detect(text string) Language
}

// Options configures a statistical detector.
type Options struct {
	// Languages restricts the candidate set. At least two are required;
	// nil means all supported languages.
	Languages []Language

	// Fallback is returned when detection is inconclusive.
	Fallback Language

	// MinRelativeDistance makes the detector answer Fallback unless the
	// best candidate beats the runner-up by this margin (0 to 0.99).
	MinRelativeDistance float64

	// Preload loads all language models up front instead of lazily on
	// the first detection.
	Preload bool
}

// ErrTooFewLanguages is returned when fewer than two candidate languages
// are configured.
var ErrTooFewLanguages = errors.New("at least two languages are required for detection")

// linguaDetector wraps a lingua-go detector. The lingua detector is safe
// for concurrent use once built.
type linguaDetector struct {
	detector lingua.LanguageDetector
	fallback Language
}

// NewDetector builds a detector backed by lingua's n-gram models.
func NewDetector(opts Options) (Detector, error) {
	langs := opts.Languages
	if langs == nil {
		langs = Supported
	}
	if len(langs) < 2 {
		return nil, ErrTooFewLanguages
	}
	if !opts.Fallback.Valid() {
		return nil, fmt.Errorf("invalid fallback language: %s", opts.Fallback)
	}
	if opts.MinRelativeDistance < 0 || opts.MinRelativeDistance > 0.99 {
		return nil, fmt.Errorf("min relative distance must be between 0 and 0.99, got %g",
			opts.MinRelativeDistance)
	}

	linguaLangs := make([]lingua.Language, 0, len(langs))
	for _, l := range langs {
		ll, ok := toLingua(l)
		if !ok {
			return nil, fmt.Errorf("unsupported language: %s", l)
		}
		linguaLangs = append(linguaLangs, ll)
	}

	builder := lingua.NewLanguageDetectorBuilder().
		FromLanguages(linguaLangs...).
		WithMinimumRelativeDistance(opts.MinRelativeDistance)
	if opts.Preload {
		builder = builder.WithPreloadedLanguageModels()
	}

	return &linguaDetector{
		detector: builder.Build(),
		fallback: opts.Fallback,
	}, nil
}

// Detect returns the highest ranked language, or the fallback when the
// text carries no usable signal.
func (d *linguaDetector) Detect(text string) Language {
	if strings.TrimSpace(text) == "" {
		return d.fallback
	}

	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return d.fallback
	}

	l, ok := fromLingua(detected)
	if !ok {
		return d.fallback
	}
	return l
}

func toLingua(l Language) (lingua.Language, bool) {
	switch l {
	case English:
		return lingua.English, true
	case Russian:
		return lingua.Russian, true
	default:
		return lingua.Unknown, false
	}
}

func fromLingua(l lingua.Language) (Language, bool) {
	switch l {
	case lingua.English:
		return English, true
	case lingua.Russian:
		return Russian, true
	default:
		return Default, false
	}
}

// fixedDetector always answers the same language.
type fixedDetector Language

// Fixed returns a detector that skips detection and always reports lang.
func Fixed(lang Language) Detector {
	return fixedDetector(lang)
}

func (f fixedDetector) Detect(string) Language {
	return Language(f)
}
