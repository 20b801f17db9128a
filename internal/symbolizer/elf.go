package symbolizer

import (
	"debug/elf"
	"fmt"
	"log/slog"
	"strings"
)

// ElfLister reads .symtab and .dynsym directly, producing the same entries
// nm would, for hosts without binutils.
type ElfLister struct{}

func NewElfLister() *ElfLister {
	return &ElfLister{}
}

func (l *ElfLister) List(binary string) ([]RawSymbol, error) {
	slog.Info("Loading ELF symbols", "path", binary)
	ef, err := elf.Open(binary)
	if err != nil {
		return nil, fmt.Errorf("opening ELF %s: %w", binary, err)
	}
	defer ef.Close()

	syms := make([]elf.Symbol, 0)
	if section := ef.Section(".symtab"); section != nil {
		st, err := ef.Symbols()
		if err == nil {
			syms = append(syms, st...)
		}
	}
	if section := ef.Section(".dynsym"); section != nil {
		st, err := ef.DynamicSymbols()
		if err == nil {
			syms = append(syms, st...)
		}
	}
	if len(syms) == 0 {
		slog.Warn("No symbol tables available in ELF", "path", binary)
		return []RawSymbol{}, nil
	}

	raw := make([]RawSymbol, 0, len(syms))
	for i := range syms {
		s := &syms[i]
		if s.Name == "" {
			continue
		}
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FILE, elf.STT_SECTION:
			continue
		}
		kind := symbolKind(ef, s)
		var addr string
		if kind != "U" {
			addr = fmt.Sprintf("%016x", s.Value)
		}
		raw = append(raw, RawSymbol{Addr: addr, Kind: kind, Name: s.Name})
	}
	return raw, nil
}

// symbolKind approximates the type letter nm prints: upper case for global
// symbols, lower case for local ones.
func symbolKind(ef *elf.File, s *elf.Symbol) string {
	var kind string
	switch {
	case s.Section == elf.SHN_UNDEF:
		return "U"
	case s.Section == elf.SHN_ABS:
		kind = "A"
	case int(s.Section) < len(ef.Sections) && ef.Sections[s.Section].Flags&elf.SHF_EXECINSTR != 0:
		kind = "T"
	default:
		kind = "D"
	}
	if elf.ST_BIND(s.Info) == elf.STB_LOCAL {
		kind = strings.ToLower(kind)
	}
	return kind
}
