package symbolizer

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Table maps symbol addresses to demangled names. It is not modified after
// BuildTable returns.
type Table map[uint64]string

// BuildTable lists the symbols of binary and keeps the defined ones, keyed
// by address. When two symbols share an address the one listed last wins.
func BuildTable(lister SymbolLister, demangler Demangler, binary string) (Table, error) {
	raw, err := lister.List(binary)
	if err != nil {
		return nil, err
	}

	table := make(Table, len(raw))
	for _, sym := range raw {
		// undefined symbols carry no address; defined ones are zero-padded hex
		if len(sym.Addr) == 0 || sym.Addr[0] != '0' {
			continue
		}
		addr, err := strconv.ParseUint(sym.Addr, 16, 64)
		if err != nil {
			slog.Warn("Skipping symbol with invalid address", "addr", sym.Addr, "name", sym.Name, "error", err)
			continue
		}
		name, err := demangler.Demangle(sym.Name)
		if err != nil {
			return nil, fmt.Errorf("demangling %s: %w", sym.Name, err)
		}
		table[addr] = trimLineTerminator(name)
	}
	slog.Info("Loaded symbols", "binary", binary, "listed", len(raw), "entries", len(table))
	return table, nil
}

func (t Table) Lookup(addr uint64) (string, bool) {
	name, ok := t[addr]
	return name, ok
}

func trimLineTerminator(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
