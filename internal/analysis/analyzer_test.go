//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package analysis

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-rerank-server/internal/language"
)

func TestProvider_Tokenize_English(t *testing.T) {
	p := NewProvider(ProviderOptions{})

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "simple text",
			input:  "hello world",
			expect: []string{"hello", "world"},
		},
		{
			name:   "with punctuation",
			input:  "Hello, World!",
			expect: []string{"hello", "world"},
		},
		{
			name:   "plural forms collapse",
			input:  "cats and dogs",
			expect: []string{"cat", "dog"},
		},
		{
			name:   "stop words removed",
			input:  "the quick brown fox jumps over the lazy dog",
			expect: []string{"quick", "brown", "fox", "jump", "over", "lazi", "dog"},
		},
		{
			name:   "single characters kept",
			input:  "version 2.0 of c",
			expect: []string{"version", "2", "0", "c"},
		},
		{
			name:   "possessive",
			input:  "the cat's toy",
			expect: []string{"cat", "toy"},
		},
		{
			name:   "typographic apostrophe",
			input:  "the dog’s bowl",
			expect: []string{"dog", "bowl"},
		},
		{
			name:   "stop word contraction",
			input:  "it's raining",
			expect: []string{"rain"},
		},
		{
			name:   "leading and trailing quotes",
			input:  "'quoted' cats'",
			expect: []string{"quot", "cat"},
		},
		{
			name:   "empty string",
			input:  "",
			expect: nil,
		},
		{
			name:   "whitespace only",
			input:  " \t\n ",
			expect: nil,
		},
		{
			name:   "only stop words",
			input:  "the and or",
			expect: nil,
		},
		{
			name:   "punctuation only",
			input:  "... !!! ---",
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Tokenize(tt.input, language.English)
			if err != nil {
				t.Fatalf("Tokenize(%q) returned error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(result, tt.expect) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, result, tt.expect)
			}
		})
	}
}

func TestProvider_Tokenize_SameStem(t *testing.T) {
	p := NewProvider(ProviderOptions{})

	pairs := []struct {
		lang language.Language
		a, b string
	}{
		{language.English, "cats", "cat"},
		{language.English, "running", "runs"},
		{language.English, "chased", "chase"},
		{language.English, "STRASSE", "straße"},
		{language.English, "ﬁles", "files"},
		{language.Russian, "кошки", "кошка"},
		{language.Russian, "собаки", "собака"},
		{language.Russian, "ёлка", "елка"},
		{language.Russian, "КОШКИ", "кошки"},
	}

	for _, pair := range pairs {
		t.Run(pair.a+"/"+pair.b, func(t *testing.T) {
			a, err := p.Tokenize(pair.a, pair.lang)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b, err := p.Tokenize(pair.b, pair.lang)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(a) != 1 || !reflect.DeepEqual(a, b) {
				t.Errorf("expected %q and %q to share one stem, got %v and %v",
					pair.a, pair.b, a, b)
			}
		})
	}
}

func TestProvider_Tokenize_RussianStopWords(t *testing.T) {
	p := NewProvider(ProviderOptions{})

	withStops, err := p.Tokenize("Кошки и собаки в доме", language.Russian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plain, err := p.Tokenize("кошка собака дома", language.Russian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(withStops) != 3 {
		t.Fatalf("expected 3 tokens, got %v", withStops)
	}
	if !reflect.DeepEqual(withStops[:2], plain[:2]) {
		t.Errorf("got %v, want prefix %v", withStops, plain[:2])
	}
}

func TestProvider_Tokenize_Malformed(t *testing.T) {
	p := NewProvider(ProviderOptions{})

	_, err := p.Tokenize("valid prefix \xff\xfe", language.English)
	if !errors.Is(err, ErrMalformedText) {
		t.Errorf("expected ErrMalformedText, got %v", err)
	}

	// The pooled analyzer must still work after a failure.
	result, err := p.Tokenize("hello world", language.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result, []string{"hello", "world"}) {
		t.Errorf("got %v after malformed input", result)
	}
}

func TestProvider_MinTokenLength(t *testing.T) {
	p := NewProvider(ProviderOptions{MinTokenLength: 4})

	result, err := p.Tokenize("go cat house", language.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result, []string{"hous"}) {
		t.Errorf("got %v, want [hous]", result)
	}
}

func TestProvider_UnknownLanguageUsesFallback(t *testing.T) {
	p := NewProvider(ProviderOptions{Fallback: language.English})

	got, err := p.Tokenize("cats", language.Language(99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := p.Tokenize("cats", language.English)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProvider_ConcurrentUse(t *testing.T) {
	p := NewProvider(ProviderOptions{})

	inputs := []struct {
		text string
		lang language.Language
	}{
		{"The quick brown fox jumps over the lazy dog", language.English},
		{"Съешь же ещё этих мягких французских булок", language.Russian},
		{"Databases store rows and columns", language.English},
		{"Кошки ловят мышей в старом доме", language.Russian},
	}

	want := make([][]string, len(inputs))
	for i, in := range inputs {
		tokens, err := p.Tokenize(in.text, in.lang)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want[i] = tokens
	}

	var g errgroup.Group
	for n := 0; n < 64; n++ {
		in := inputs[n%len(inputs)]
		expect := want[n%len(inputs)]
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				got, err := p.Tokenize(in.text, in.lang)
				if err != nil {
					return err
				}
				if !reflect.DeepEqual(got, expect) {
					return fmt.Errorf("Tokenize(%q) = %v, want %v", in.text, got, expect)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestPipeline_Analyze(t *testing.T) {
	detector, err := language.NewDetector(language.Options{Fallback: language.English})
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}
	p := NewPipeline(detector, NewProvider(ProviderOptions{}))

	lang, tokens, err := p.Analyze("Кошки ловят мышей в старом доме")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lang != language.Russian {
		t.Errorf("expected russian, got %s", lang)
	}
	if len(tokens) != 5 {
		t.Errorf("expected 5 tokens, got %v", tokens)
	}

	tokens, err = p.Tokenize("cats chase mice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(tokens, []string{"cat", "chase", "mice"}) {
		t.Errorf("got %v", tokens)
	}

	if got := p.Detect(""); got != language.English {
		t.Errorf("expected fallback english, got %s", got)
	}
}
