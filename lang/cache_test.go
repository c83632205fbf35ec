package lang

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestPrepareCached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	a, err := PrepareCached(t.Context(), "{upper:{name}}")
	if err != nil {
		t.Fatal(err)
	}

	b, err := PrepareCached(t.Context(), "{upper:{name}}")
	if err != nil {
		t.Fatal(err)
	}

	if a == b || &a.exprs[0] == &b.exprs[0] {
		t.Fatal("PrepareCached returned shared templates")
	}

	env := NewEnv(Vars{"name": String("x")})

	got, err := a.Realize(t.Context(), env, nil)
	if err != nil || got != "X" {
		t.Errorf("Realize = (%q, %v), want X", got, err)
	}

	var entries int

	compiled.Range(func(any, any) bool {
		entries++

		return true
	})

	if entries != 1 {
		t.Errorf("cache holds %d entries, want 1", entries)
	}
}

func TestPrepareCached_OptionsAreKeyed(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	strict, err := PrepareCached(t.Context(), "{missing}", WithPolicy(PolicyStrict))
	if err != nil {
		t.Fatal(err)
	}

	lenient, err := PrepareCached(t.Context(), "{missing}")
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := strict.Realize(t.Context(), nil, nil); got != "" {
		t.Errorf("strict Realize = %q, want empty", got)
	}

	if got, _ := lenient.Realize(t.Context(), nil, nil); got != "null" {
		t.Errorf("lenient Realize = %q, want null", got)
	}

	if cacheKey("x", makeOptions()) == cacheKey("x", makeOptions(WithLoopLimit(3))) {
		t.Error("cache key ignores the loop limit")
	}
}

func TestPrepareCached_KeyCollision(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	other, err := Prepare(t.Context(), "{lower:{name}}")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		src  string
		want string
	}{
		{"{upper:{name}}", "ABC"},
		{"{name}!", "aBc!"},
	}

	env := NewEnv(Vars{"name": String("aBc")})

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			key := cacheKey(tt.src, makeOptions())
			entry := &cacheEntry{src: "{lower:{name}}", tmpl: other}
			entry.once.Do(func() {})
			compiled.Store(key, entry)

			for range 2 {
				tmpl, err := PrepareCached(t.Context(), tt.src)
				if err != nil {
					t.Fatal(err)
				}

				if tmpl.Source() != tt.src {
					t.Fatalf("Source() = %q, want %q", tmpl.Source(), tt.src)
				}

				got, err := tmpl.Realize(t.Context(), env, nil)
				if err != nil || got != tt.want {
					t.Errorf("Realize = (%q, %v), want %q", got, err, tt.want)
				}
			}

			if value, _ := compiled.Load(key); value != entry {
				t.Error("colliding entry was replaced")
			}
		})
	}
}

func TestPrepareCached_ErrorsNotCached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	for range 2 {
		if _, err := PrepareCached(t.Context(), "{"); !errors.Is(err, ErrUnbalancedBraces) {
			t.Fatalf("error = %v, want ErrUnbalancedBraces", err)
		}
	}

	compiled.Range(func(key, _ any) bool {
		t.Errorf("failed compilation left cache entry %v", key)

		return true
	})
}

func TestPrepareCached_Concurrent(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	var wg sync.WaitGroup

	results := make([]string, 16)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			tmpl, err := PrepareCached(t.Context(), "{for:[1,2]:{*:{i}:{n}}}")
			if err != nil {
				return
			}

			results[i], _ = tmpl.Realize(t.Context(), NewEnv(Vars{"n": Number(i)}), nil)
		}()
	}

	wg.Wait()

	if results[3] != "[3,6]" || results[10] != "[10,20]" {
		t.Errorf("results = %q", results)
	}
}

func TestPrepareReader(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	tmpl, err := PrepareReader(t.Context(), strings.NewReader("{+:1:2}"))
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := tmpl.Realize(t.Context(), nil, nil); got != "3" {
		t.Errorf("Realize = %q, want 3", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestPrepareReader_Error(t *testing.T) {
	_, err := PrepareReader(t.Context(), failingReader{})

	if !errors.Is(err, ErrReadInput) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, want ErrReadInput wrapping io.ErrUnexpectedEOF", err)
	}
}
