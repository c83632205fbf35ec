package lang

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		// arithmetic
		{"{+:1:2:3}", "6"},
		{"{*:2:3:4}", "24"},
		{"{-:5}", "-5"},
		{"{-:5:2}", "3"},
		{"{/:7:2}", "3.5"},
		{"{mod:7:3}", "1"},
		{"{round:3.14159:2}", "3.14"},
		{"{round:2.5}", "3"},
		{"{round:1.5:400}", "1.5"},
		{"{round:1234:-400}", "0"},
		{"{sqr:3}", "9"},
		{"{abs:-2}", "2"},
		{"{min:3:1:2}", "1"},
		{"{max:3:1:2}", "3"},

		// comparison and logic
		{"{>:10:9}", "true"},
		{"{<:abc:abd}", "true"},
		{"{>=:2:2.0}", "true"},
		{"{<=:3:2}", "false"},
		{"{equal:a:a}", "true"},
		{"{nequal:1:1.0}", "false"},
		{"{&&:1:yes:0}", "false"},
		{"{||:0:null:x}", "true"},
		{"{not:}", "true"},
		{"{not:false}", "true"},

		// strings and arrays
		{"{lower:AbC}", "abc"},
		{"{substr:hello:1:3}", "ell"},
		{"{substr:hello:-2}", "lo"},
		{"{substr:héllo:1:1}", "é"},
		{"{pad_string:ab:4:.}", "ab.."},
		{"{padl_string:7:3:0}", "007"},
		{"{pad_string:abcdef:3}", "abcdef"},
		{"{shorten:abcdefgh:5}", "ab..."},
		{"{shorten:abc:5}", "abc"},
		{"{shorten:abcdefgh:4:~}", "abc~"},
		{"{shorten:hello:-1}", ""},
		{"{shorten:hello:0}", ""},
		{"{concat:a:b:c}", "abc"},
		{"{concat:x='a:b'}", "x='a:b'"},
		{"{concat:'a:b'}", "a:b"},
		{`{concat:it\'s:x}`, "it'sx"},
		{"{repeat:ab:3}", "ababab"},
		{"{join:[a,b,c]:-}", "a-b-c"},
		{"{at:[a,b,c]:1}", "b"},
		{"{at:[a,b,c]:-1}", "c"},
		{"{at:[a,b,c]:5}", ""},
		{"{array_length:[a,b]}", "2"},
		{"{array_length:abc}", "3"},
		{"{empty:[]}", "true"},
		{"{empty:[x]}", "false"},

		// vectors
		{"{addVector:(1,2):(3,4)}", "(4,6)"},
		{"{subVector:(1,2):(3,4)}", "(-2,-2)"},
		{"{mulVector:(1,2):2}", "(2,4)"},
		{"{divVector:(4,6):(2,3)}", "(2,2)"},
		{"{minVector:(1,5):(3,4)}", "(1,4)"},
		{"{distance:(0,0):(3,4)}", "5"},
		{"{meanVector:(0,0):(2,4)}", "(1,2)"},
		{"{addVector.x:(1,2):(3,4)}", "4"},

		// misc
		{"{cmap:0}", "#0000ffff"},
		{"{cmap:1}", "#ff0000ff"},
		{"{cmap:5:0:10}", "#00ff00ff"},
		{"{cmap:-3}", "#0000ffff"},
		{"{cmap.a:1}", "255"},
		{"{filename:/a/b/c.txt}", "c.txt"},
		{"{folder:/a/b/c.txt}", filepath.Dir("/a/b/c.txt")},
		{"{basename:/a/b/c.txt}", "c"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := realize(t, tt.src, nil, nil, WithPolicy(PolicyStrict))
			if err != nil {
				t.Fatalf("Realize error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Realize(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"{/:1:0}", errDivideByZero},
		{"{mod:1:0}", errDivideByZero},
		{"{divVector:(1,1):(0,1)}", errDivideByZero},
		{"{sqr:x}", ErrInvalidNumber},
		{"{addVector:(1,2):y}", ErrInvalidVector},
		{"{+:1}", ErrArityMismatch},
		{"{mouse:1}", ErrArityMismatch},
		{"{repeat:ab:1e300}", ErrInvalidNumber},
		{"{repeat:ab:Inf}", ErrInvalidNumber},
		{"{substr:abc:-1e300}", ErrInvalidNumber},
		{"{repeat:ab:1000000}", ErrOutputTooLarge},
		{"{pad_string:a:9999999}", ErrOutputTooLarge},
		{"{padl_string:a:9999999:xy}", ErrOutputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := realize(t, tt.src, nil, nil, WithPolicy(PolicyStrict))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFunction_InvokeRecoversPanic(t *testing.T) {
	env := NewEnv(nil).Register(&Function{
		Name:    "explode",
		MinArgs: 0,
		MaxArgs: 1,
		Fn:      func(Call) (Variable, error) { panic("boom") },
	})

	tests := []string{"{explode}", "{explode:x}", "a{explode}b"}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := realize(t, src, env, nil, WithPolicy(PolicyStrict))
			if !errors.Is(err, ErrUserFunction) {
				t.Fatalf("error = %v, want %v", err, ErrUserFunction)
			}

			if !strings.Contains(err.Error(), "boom") {
				t.Errorf("error %q does not carry the panic value", err)
			}
		})
	}
}

func TestBuiltins_State(t *testing.T) {
	st := NewState(nil)
	st.SetPointer(5, 6)
	st.SetClock(func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	})

	env := NewEnv(nil).WithGlobals(Vars{"level": Number(3)})

	tests := []struct {
		src  string
		want string
	}{
		{"{mouse}", "(5,6)"},
		{"{mouse.x}", "5"},
		{"{time}", "1704164645"},
		{"{time:dateonly}", "2024-01-02"},
		{"{time:15h04}", "03h04"},
		{"{global:level}", "3"},
		{"{global:score:10}/{global:score}", "10/10"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := realize(t, tt.src, env, st, WithPolicy(PolicyStrict))
			if err != nil || got != tt.want {
				t.Errorf("Realize = (%q, %v), want %q", got, err, tt.want)
			}
		})
	}

	// Scratch variables written by global persist in the state.
	if got, err := realize(t, "{score}", env, st); err != nil || got != "10" {
		t.Errorf("scratch variable = (%q, %v), want 10", got, err)
	}
}

func TestBuiltins_GlobalWithoutState(t *testing.T) {
	_, err := realize(t, "{global:x:1}", nil, nil, WithPolicy(PolicyStrict))
	if !errors.Is(err, ErrNoState) {
		t.Errorf("error = %v, want ErrNoState", err)
	}

	_, err = realize(t, "{global:nothing}", nil, NewState(nil), WithPolicy(PolicyStrict))
	if !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("error = %v, want ErrUnknownVariable", err)
	}
}

func TestBuiltins_System(t *testing.T) {
	t.Setenv("PATTERN_TEST_VALUE", "v")

	dir := t.TempDir()

	tests := []struct {
		src  string
		want string
	}{
		{"{getenv:PATTERN_TEST_VALUE}", "v"},
		{"{getenv:PATTERN_TEST_UNSET_VALUE:fallback}", "fallback"},
		{"{exists:" + dir + "}", "true"},
		{"{exists:" + filepath.Join(dir, "none") + "}", "false"},
		{"{isdir:" + dir + "}", "true"},
		{"{joinpath:a:b:c}", filepath.Join("a", "b", "c")},
		{"{abspath:" + dir + "}", dir},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := realize(t, tt.src, nil, nil, WithPolicy(PolicyStrict))
			if err != nil || got != tt.want {
				t.Errorf("Realize = (%q, %v), want %q", got, err, tt.want)
			}
		})
	}

	for _, src := range []string{"{platform}", "{target}", "{cwd}"} {
		got, err := realize(t, src, nil, nil, WithPolicy(PolicyStrict))
		if err != nil || got == "" {
			t.Errorf("Realize(%q) = (%q, %v), want non-empty", src, got, err)
		}
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		goos, arch string
		want       string
	}{
		{"linux", "amd64", "x86_64"},
		{"linux", "arm64", "aarch64"},
		{"darwin", "arm64", "arm64"},
		{"windows", "386", "i386"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.arch, func(t *testing.T) {
			t.Setenv("GOHOSTOS", tt.goos)
			t.Setenv("GOHOSTARCH", tt.arch)

			goos, arch := target()
			if goos != tt.goos || arch != tt.want {
				t.Errorf("target() = %s/%s, want %s/%s", goos, arch, tt.goos, tt.want)
			}
		})
	}
}

func TestPrefixList(t *testing.T) {
	got := prefixList("/usr/bin", "/opt/bin")

	if !strings.Contains(got, "/opt/bin") {
		t.Errorf("prefixList = %q, want it to contain /opt/bin", got)
	}
}

func TestBuiltins_Extensions(t *testing.T) {
	env := NewEnv(Vars{
		"score": Number(42),
		"name":  String("ada"),
	})

	tests := []struct {
		src  string
		want string
	}{
		{"{calc:1 + 2 * 3}", "7"},
		{"{calc:score / 2}", "21"},
		{"{calc:args[0] + args[1]:2:5}", "7"},
		{"{calc:upper(name)}", "ADA"},
		{"{calc:len(args):a:b:c}", "3"},
		{"{cel:1 + 2}", "3"},
		{"{cel:vars.score > 40.0}", "true"},
		{"{cel:args[0] * args[1]:2:4}", "8"},
		{"{cel:vars.name + '!'}", "ada!"},
		{"{number:1234567.891:2}", "1,234,567.89"},
		{"{number:1234567:0:de}", "1.234.567"},
		{"{number:12}", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := realize(t, tt.src, env, nil, WithPolicy(PolicyStrict))
			if err != nil || got != tt.want {
				t.Errorf("Realize = (%q, %v), want %q", got, err, tt.want)
			}
		})
	}
}

func TestBuiltins_ExtensionErrors(t *testing.T) {
	for _, src := range []string{"{calc:1 +}", "{cel:1 +}", "{cel:undefined_ident}", "{number:x}"} {
		t.Run(src, func(t *testing.T) {
			_, err := realize(t, src, nil, nil, WithPolicy(PolicyStrict))
			if !errors.Is(err, ErrUserFunction) {
				t.Errorf("error = %v, want ErrUserFunction", err)
			}
		})
	}
}

func TestFunction_Signature(t *testing.T) {
	tests := []struct {
		fn   *Function
		want string
	}{
		{&Function{Name: "f", MinArgs: 1, MaxArgs: 1}, "f/1"},
		{&Function{Name: "f", MinArgs: 2, MaxArgs: 3}, "f/2..3"},
		{&Function{Name: "f", MinArgs: 1, MaxArgs: Variadic}, "f/1+"},
	}

	for _, tt := range tests {
		if got := tt.fn.Signature(); got != tt.want {
			t.Errorf("Signature() = %q, want %q", got, tt.want)
		}
	}
}

func TestFunction_ValueString(t *testing.T) {
	f, ok := NewEnv(nil).Function("addVector")
	if !ok {
		t.Fatal("addVector not registered")
	}

	got, err := f.ValueString([]string{"y"}, []string{"(1,2)", "(3,4)"})
	if err != nil || got != "6" {
		t.Errorf("ValueString = (%q, %v), want 6", got, err)
	}
}

func TestBuiltins_Sorted(t *testing.T) {
	fns := Builtins()

	for i := 1; i < len(fns); i++ {
		if fns[i-1].Name >= fns[i].Name {
			t.Fatalf("Builtins not sorted at %d: %q >= %q", i, fns[i-1].Name, fns[i].Name)
		}
	}

	for _, name := range []string{"+", "if", "for"} {
		_, ok := NewEnv(nil).Function(name)
		if want := name == "+"; ok != want {
			t.Errorf("Function(%q) ok = %v, want %v", name, ok, want)
		}
	}
}
