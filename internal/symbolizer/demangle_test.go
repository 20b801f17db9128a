package symbolizer

import (
	"os/exec"
	"testing"
)

func TestItaniumDemangler(t *testing.T) {
	d, err := NewItaniumDemangler()
	if err != nil {
		t.Fatalf("NewItaniumDemangler: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{in: "_Z3fooi", want: "foo(int)"},
		{in: "_ZN3Foo3barEv", want: "Foo::bar()"},
		{in: "main", want: "main"},
		{in: "main.main", want: "main.main"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := d.Demangle(tt.in)
			if err != nil {
				t.Fatalf("Demangle returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("want %q got %q", tt.want, got)
			}
		})
	}
}

func TestItaniumDemangler_Options(t *testing.T) {
	d, err := NewItaniumDemangler("no_params")
	if err != nil {
		t.Fatalf("NewItaniumDemangler: %v", err)
	}
	got, _ := d.Demangle("_Z3fooi")
	if got != "foo" {
		t.Fatalf("expected parameters to be dropped, got %q", got)
	}

	if _, err := NewItaniumDemangler("bogus"); err == nil {
		t.Fatalf("expected error for unknown option")
	}
}

func TestCxxFilt(t *testing.T) {
	if _, err := exec.LookPath("c++filt"); err != nil {
		t.Skip("c++filt not installed")
	}
	got, err := NewCxxFilt().Demangle("_Z3fooi")
	if err != nil {
		t.Fatalf("Demangle returned error: %v", err)
	}
	if got != "foo(int)\n" {
		t.Fatalf("unexpected c++filt output %q", got)
	}
	if trimLineTerminator(got) != "foo(int)" {
		t.Fatalf("terminator not stripped: %q", trimLineTerminator(got))
	}
}
