package symbolizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
)

type mockLister struct {
	syms []RawSymbol
	err  error
}

func (m *mockLister) List(binary string) ([]RawSymbol, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.syms, nil
}

// mockDemangler mimics c++filt: it appends a newline to whatever it returns.
type mockDemangler struct {
	names map[string]string
	err   error
	calls int
}

func (m *mockDemangler) Demangle(name string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if d, ok := m.names[name]; ok {
		return d + "\n", nil
	}
	return name + "\n", nil
}

func TestBuildTable(t *testing.T) {
	t.Run("keeps_defined_symbols_and_demangles", func(t *testing.T) {
		lister := &mockLister{syms: []RawSymbol{
			{Addr: "0000000000401000", Kind: "T", Name: "_Z3foov"},
			{Addr: "", Kind: "U", Name: "puts"},
			{Addr: "ffffffff81000000", Kind: "T", Name: "kernel_text"},
			{Addr: "0000000000401020", Kind: "t", Name: "helper"},
		}}
		dm := &mockDemangler{names: map[string]string{"_Z3foov": "foo()"}}

		table, err := BuildTable(lister, dm, "prog")
		if err != nil {
			t.Fatalf("BuildTable returned error: %v", err)
		}
		if len(table) != 2 {
			t.Fatalf("expected 2 entries, got %d: %v", len(table), table)
		}
		if got := table[0x401000]; got != "foo()" {
			t.Fatalf("expected foo(), got %q", got)
		}
		if got := table[0x401020]; got != "helper" {
			t.Fatalf("expected helper, got %q", got)
		}
		if dm.calls != 2 {
			t.Fatalf("expected demangler called for qualifying entries only, got %d calls", dm.calls)
		}
	})

	t.Run("keys_round_trip_from_hex", func(t *testing.T) {
		var syms []RawSymbol
		for i := 0; i < 50; i++ {
			syms = append(syms, RawSymbol{Addr: fmt.Sprintf("%016x", 0x400000+i*0x10), Kind: "T", Name: fmt.Sprintf("f%d", i)})
		}
		table, err := BuildTable(&mockLister{syms: syms}, NopDemangler{}, "prog")
		if err != nil {
			t.Fatalf("BuildTable returned error: %v", err)
		}
		if len(table) != len(syms) {
			t.Fatalf("expected %d entries, got %d", len(syms), len(table))
		}
		for _, s := range syms {
			key, _ := strconv.ParseUint(s.Addr, 16, 64)
			if table[key] != s.Name {
				t.Fatalf("key 0x%x: want %q got %q", key, s.Name, table[key])
			}
		}
	})

	t.Run("duplicate_address_last_wins", func(t *testing.T) {
		lister := &mockLister{syms: []RawSymbol{
			{Addr: "0000000000401000", Kind: "T", Name: "first"},
			{Addr: "0000000000401000", Kind: "W", Name: "second"},
		}}
		table, err := BuildTable(lister, NopDemangler{}, "prog")
		if err != nil {
			t.Fatalf("BuildTable returned error: %v", err)
		}
		if table[0x401000] != "second" {
			t.Fatalf("expected last entry to win, got %q", table[0x401000])
		}
	})

	t.Run("invalid_hex_is_skipped", func(t *testing.T) {
		lister := &mockLister{syms: []RawSymbol{
			{Addr: "0zz", Kind: "T", Name: "bad"},
			{Addr: "0000000000000010", Kind: "T", Name: "good"},
		}}
		table, err := BuildTable(lister, NopDemangler{}, "prog")
		if err != nil {
			t.Fatalf("BuildTable returned error: %v", err)
		}
		if len(table) != 1 || table[0x10] != "good" {
			t.Fatalf("unexpected table %v", table)
		}
	})

	t.Run("empty_listing_yields_empty_table", func(t *testing.T) {
		table, err := BuildTable(&mockLister{}, NopDemangler{}, "prog")
		if err != nil {
			t.Fatalf("BuildTable returned error: %v", err)
		}
		if table == nil || len(table) != 0 {
			t.Fatalf("expected empty non-nil table, got %v", table)
		}
	})

	t.Run("lister_error_propagates", func(t *testing.T) {
		_, err := BuildTable(&mockLister{err: errors.New("nm failed")}, NopDemangler{}, "prog")
		if err == nil || !strings.Contains(err.Error(), "nm failed") {
			t.Fatalf("expected lister error, got %v", err)
		}
	})

	t.Run("demangler_error_propagates", func(t *testing.T) {
		lister := &mockLister{syms: []RawSymbol{{Addr: "0000000000401000", Kind: "T", Name: "_Z3foov"}}}
		_, err := BuildTable(lister, &mockDemangler{err: errors.New("c++filt missing")}, "prog")
		if err == nil || !strings.Contains(err.Error(), "c++filt missing") {
			t.Fatalf("expected demangler error, got %v", err)
		}
	})
}

func TestTable_Lookup(t *testing.T) {
	table := Table{0x401000: "foo()"}
	if got, ok := table.Lookup(0x401000); !ok || got != "foo()" {
		t.Fatalf("expected foo(), got %q (found=%v)", got, ok)
	}
	if _, ok := table.Lookup(0x999999); ok {
		t.Fatalf("expected Lookup miss")
	}
}
