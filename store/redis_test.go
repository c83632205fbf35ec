package store

import (
	"testing"
	"time"

	"github.com/ardnew/pattern/lang"
)

// unreachable returns a retriever for a port nothing listens on.
func unreachable(t *testing.T) *Redis {
	t.Helper()

	r := New(Options{
		Addr:    "127.0.0.1:1",
		Prefix:  "test:",
		Timeout: 100 * time.Millisecond,
	})

	t.Cleanup(func() { _ = r.Close() })

	return r
}

func TestKey(t *testing.T) {
	r := Wrap(nil, Options{Prefix: "ui:"})

	if got := r.Key("window"); got != "ui:window" {
		t.Errorf("Key() = %q, want %q", got, "ui:window")
	}

	if r.timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", r.timeout, DefaultTimeout)
	}
}

func TestRetrieveNamedUnreachable(t *testing.T) {
	r := unreachable(t)

	if err := r.Ping(t.Context()); err == nil {
		t.Fatal("Ping() succeeded against an unreachable server")
	}

	h, ok := r.RetrieveNamed(t.Context(), "window")
	if ok || h != nil {
		t.Errorf("RetrieveNamed() = %v, %t, want nil, false", h, ok)
	}
}

func TestObjectsFallbackUnreachable(t *testing.T) {
	r := unreachable(t)

	objs := lang.NewObjects(r)
	objs.Set("local", lang.Fields{"title": lang.String("main")})

	tmpl := lang.MustPrepare("{local.title}|{.window.title}")
	st := lang.NewState(tmpl)
	st.SetObjects(objs)

	got, err := st.Realize(t.Context(), nil)
	if err != nil {
		t.Fatalf("Realize() error = %v", err)
	}

	if got != "main|" {
		t.Errorf("Realize() = %q, want %q", got, "main|")
	}
}

func TestObjectUnsupportedType(t *testing.T) {
	o := &object{Redis: Wrap(nil, Options{}), key: "k", kind: "zset"}

	if s, ok := o.Modifier(t.Context(), nil, nil); ok {
		t.Errorf("Modifier() = %q, true, want false", s)
	}
}
