package matcher

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/skinhistory/internal/model"
)

var annie = model.Character{ID: 1, Name: "Annie", Alias: "Annie"}

var annieSkins = []model.Skin{
	{ID: 1000, IsBase: true, Name: "Annie"},
	{ID: 1001, Name: "Goth Annie"},
	{ID: 1002, Name: "Red Riding Annie"},
	{ID: 1005, Name: "Frostfire Annie"},
	{ID: 2000, IsBase: true, Name: "Olaf"},
}

func newTestMatcher(buf *bytes.Buffer, opts ...Option) *Matcher {
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(buf, nil)))}
	return New(append(base, opts...)...)
}

func TestIndexResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		opts    []Option
		want    model.SkinID
		outcome Outcome
	}{
		{name: "exact name", query: "Goth Annie", want: 1001, outcome: Matched},
		{name: "case and whitespace", query: "goth  ANNIE", want: 1001, outcome: Matched},
		{name: "diacritics", query: "Frostfíre Annie", want: 1005, outcome: Matched},
		{name: "original prefix falls back to base name", query: "Original Annie", want: 1000, outcome: Matched},
		{
			name:    "alias target",
			query:   "Little Red Riding Annie",
			opts:    []Option{WithAliases(map[string]string{"Little Red Riding Annie": "Red Riding Annie"})},
			want:    1002,
			outcome: Matched,
		},
		{name: "unrelated name", query: "Hextech Annie", outcome: Unresolved},
		{name: "other character's skin", query: "Olaf", outcome: Unresolved},
		{
			name:    "ignored name",
			query:   "Tibbers",
			opts:    []Option{WithIgnored([]string{"Tibbers"})},
			outcome: Ignored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			ix := newTestMatcher(&buf, tt.opts...).Index(annie, annieSkins)
			skin, outcome := ix.Resolve(tt.query)
			if outcome != tt.outcome {
				t.Fatalf("expected outcome %s, got %s", tt.outcome, outcome)
			}
			if outcome == Matched && skin.ID != tt.want {
				t.Errorf("expected skin %d, got %d (%s)", tt.want, skin.ID, skin.Name)
			}
		})
	}
}

func TestIndexDiagnostics(t *testing.T) {
	t.Parallel()

	t.Run("unresolved name is logged with character", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ix := newTestMatcher(&buf).Index(annie, annieSkins)
		if _, outcome := ix.Resolve("Hextech Annie"); outcome != Unresolved {
			t.Fatalf("expected unresolved, got %s", outcome)
		}
		out := buf.String()
		if !strings.Contains(out, "unresolved skin name") || !strings.Contains(out, "Hextech Annie") || !strings.Contains(out, "character=Annie") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("ignored name is silent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ix := newTestMatcher(&buf, WithIgnored([]string{"Tibbers"})).Index(annie, annieSkins)
		if _, outcome := ix.Resolve("Tibbers"); outcome != Ignored {
			t.Fatalf("expected ignored, got %s", outcome)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no log output, got %q", buf.String())
		}
	})

	t.Run("ignored name that matches still resolves", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ix := newTestMatcher(&buf, WithIgnored([]string{"Goth Annie"})).Index(annie, annieSkins)
		if skin, outcome := ix.Resolve("Goth Annie"); outcome != Matched || skin.ID != 1001 {
			t.Errorf("expected match on 1001, got %s %d", outcome, skin.ID)
		}
	})
}

func TestIndexOnlyOwnedSkins(t *testing.T) {
	t.Parallel()

	ix := New().Index(annie, annieSkins)
	if ix.Len() != 4 {
		t.Errorf("expected 4 owned skins, got %d", ix.Len())
	}
}

type exactScorer struct{}

func (exactScorer) Score(query, candidate string) float64 {
	if query == candidate {
		return 0
	}
	return 1
}

func TestWithScorer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ix := newTestMatcher(&buf, WithScorer(exactScorer{})).Index(annie, annieSkins)
	if _, outcome := ix.Resolve("goth annie"); outcome != Unresolved {
		t.Errorf("expected exact scorer to reject case variant, got %s", outcome)
	}
	if skin, outcome := ix.Resolve("Goth Annie"); outcome != Matched || skin.ID != 1001 {
		t.Errorf("expected match on 1001, got %s %d", outcome, skin.ID)
	}
}

func TestLevenshteinScorer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{a: "Annie", b: "Annie", want: 0},
		{a: "Annie", b: "annie", want: 0},
		{a: "", b: "", want: 0},
		{a: "abcd", b: "abce", want: 0.25},
		{a: "", b: "Annie", want: 1},
	}
	for _, tt := range tests {
		if got := (LevenshteinScorer{}).Score(tt.a, tt.b); got != tt.want {
			t.Errorf("Score(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Pokémon  Annie": "pokemon annie",
		" Goth Annie ":   "goth annie",
		"ÉLÉGANT":        "elegant",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
