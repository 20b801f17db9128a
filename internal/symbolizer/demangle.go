package symbolizer

import (
	"fmt"

	"github.com/ianlancetaylor/demangle"
)

// CxxFilt demangles by running c++filt once per name. The returned text
// keeps the tool's trailing newline.
type CxxFilt struct {
	Tool string
}

func NewCxxFilt() *CxxFilt {
	return &CxxFilt{Tool: "c++filt"}
}

func (c *CxxFilt) Demangle(name string) (string, error) {
	out, err := runTool(c.Tool, name)
	if err != nil {
		return "", fmt.Errorf("running %s on %s: %w", c.Tool, name, err)
	}
	return string(out), nil
}

var DemangleOptions = []string{
	"no_params",
	"no_template_params",
	"no_enclosing_params",
	"no_clones",
	"no_rust",
	"verbose",
	"llvm_style",
}

var demangleOptionMappings = map[string]demangle.Option{
	"no_params":           demangle.NoParams,
	"no_template_params":  demangle.NoTemplateParams,
	"no_enclosing_params": demangle.NoEnclosingParams,
	"no_clones":           demangle.NoClones,
	"no_rust":             demangle.NoRust,
	"verbose":             demangle.Verbose,
	"llvm_style":          demangle.LLVMStyle,
}

// ItaniumDemangler demangles C++ and Rust names in-process. Names that
// are not mangled are returned unchanged.
type ItaniumDemangler struct {
	options []demangle.Option
}

func NewItaniumDemangler(options ...string) (*ItaniumDemangler, error) {
	opts := make([]demangle.Option, 0, len(options))
	for _, o := range options {
		opt, ok := demangleOptionMappings[o]
		if !ok {
			return nil, fmt.Errorf("unknown demangle option %q", o)
		}
		opts = append(opts, opt)
	}
	return &ItaniumDemangler{options: opts}, nil
}

func (d *ItaniumDemangler) Demangle(name string) (string, error) {
	return demangle.Filter(name, d.options...), nil
}

type NopDemangler struct{}

func (NopDemangler) Demangle(name string) (string, error) {
	return name, nil
}
