package lang

import (
	"errors"
	"testing"
)

func TestTokenize(t *testing.T) {
	type tok struct {
		text string
		kind tokenKind
	}

	tests := []struct {
		name string
		src  string
		want []tok
	}{
		{"empty", "", nil},
		{"literal only", "plain text", []tok{{"plain text", tokenLiteral}}},
		{"single expr", "{name}", []tok{{"name", tokenExpr}}},
		{
			name: "mixed",
			src:  "Hello {name}!",
			want: []tok{
				{"Hello ", tokenLiteral},
				{"name", tokenExpr},
				{"!", tokenLiteral},
			},
		},
		{
			name: "nested braces stay in one token",
			src:  "{upper:{lower:AbC}}",
			want: []tok{{"upper:{lower:AbC}", tokenExpr}},
		},
		{
			name: "escaped braces are literal",
			src:  `\{x\}`,
			want: []tok{{"{x", tokenLiteral}, {"}", tokenLiteral}},
		},
		{
			name: "escape kept inside expression",
			src:  `{a:\}}`,
			want: []tok{{`a:\}`, tokenExpr}},
		},
		{
			name: "adjacent expressions",
			src:  "{a}{b}",
			want: []tok{{"a", tokenExpr}, {"b", tokenExpr}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := tokenize(tt.src, span{0, len(tt.src)})
			if err != nil {
				t.Fatalf("tokenize(%q) error: %v", tt.src, err)
			}

			if len(toks) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %d tokens, want %d", tt.src, len(toks), len(tt.want))
			}

			for i, w := range tt.want {
				if got := toks[i].in(tt.src); got != w.text || toks[i].kind != w.kind {
					t.Errorf("token %d = (%q, %d), want (%q, %d)",
						i, got, toks[i].kind, w.text, w.kind)
				}
			}
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		pos  Position
	}{
		{"unclosed", "abc {name", ErrUnbalancedBraces, Position{Offset: 4, Line: 1, Column: 5}},
		{"stray close", "a}", ErrUnbalancedBraces, Position{Offset: 1, Line: 1, Column: 2}},
		{"empty", "x\n{}", ErrEmptyExpression, Position{Offset: 2, Line: 2, Column: 1}},
		{"unclosed nested", "{a:{b}", ErrUnbalancedBraces, Position{Offset: 0, Line: 1, Column: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokenize(tt.src, span{0, len(tt.src)})

			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			if !errors.Is(err, ErrParse) {
				t.Errorf("error %v does not match ErrParse", err)
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not a *ParseError", err)
			}

			if pe.Pos != tt.pos {
				t.Errorf("position = %+v, want %+v", pe.Pos, tt.pos)
			}
		})
	}
}
