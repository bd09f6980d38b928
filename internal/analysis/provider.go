//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package analysis

import (
	"sync"

	"github.com/pgEdge/pgedge-rerank-server/internal/language"
)

// ProviderOptions configures a Provider.
type ProviderOptions struct {
	// MinTokenLength drops shorter terms. Zero means DefaultMinTokenLength.
	MinTokenLength int

	// Fallback selects the analyzer for languages without one.
	Fallback language.Language
}

// Provider hands out language specific analyzers. Analyzers are pooled per
// language and checked out exclusively for the duration of one Tokenize
// call, so a Provider is safe for concurrent use.
type Provider struct {
	pools    map[language.Language]*sync.Pool
	fallback language.Language
}

// NewProvider creates a provider with one analyzer pool per supported
// language.
func NewProvider(opts ProviderOptions) *Provider {
	minLength := opts.MinTokenLength
	if minLength <= 0 {
		minLength = DefaultMinTokenLength
	}

	fallback := opts.Fallback
	if !fallback.Valid() {
		fallback = language.Default
	}

	p := &Provider{
		pools:    make(map[language.Language]*sync.Pool, len(language.Supported)),
		fallback: fallback,
	}
	for _, lang := range language.Supported {
		p.pools[lang] = &sync.Pool{
			New: func() any { return newAnalyzer(lang, minLength) },
		}
	}

	return p
}

// Tokenize returns the normalized terms of text using the analyzer for
// lang. Empty or whitespace-only text yields no terms.
func (p *Provider) Tokenize(text string, lang language.Language) ([]string, error) {
	pool, ok := p.pools[lang]
	if !ok {
		pool = p.pools[p.fallback]
	}

	a := pool.Get().(*analyzer)
	defer pool.Put(a)

	return a.analyze(text)
}

// Pipeline detects the language of a text and tokenizes it with the
// matching analyzer.
type Pipeline struct {
	detector language.Detector
	provider *Provider
}

// NewPipeline combines a detector and a provider.
func NewPipeline(detector language.Detector, provider *Provider) *Pipeline {
	return &Pipeline{
		detector: detector,
		provider: provider,
	}
}

// Detect returns the language the pipeline would analyze text with.
func (p *Pipeline) Detect(text string) language.Language {
	return p.detector.Detect(text)
}

// Analyze detects the language of text and returns it with the terms.
func (p *Pipeline) Analyze(text string) (language.Language, []string, error) {
	lang := p.detector.Detect(text)
	tokens, err := p.provider.Tokenize(text, lang)
	return lang, tokens, err
}

// Tokenize detects the language of text and returns its terms.
func (p *Pipeline) Tokenize(text string) ([]string, error) {
	_, tokens, err := p.Analyze(text)
	return tokens, err
}
