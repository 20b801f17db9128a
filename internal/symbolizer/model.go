package symbolizer

// RawSymbol is one entry of a symbol listing before any conversion.
// Addr is empty for undefined symbols.
type RawSymbol struct {
	Addr string
	Kind string
	Name string
}

type SymbolLister interface {
	List(binary string) ([]RawSymbol, error)
}

type Demangler interface {
	Demangle(name string) (string, error)
}
