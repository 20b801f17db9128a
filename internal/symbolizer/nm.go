package symbolizer

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// NmLister lists symbols by running binutils nm in "-o" mode.
type NmLister struct {
	Tool string
}

func NewNmLister() *NmLister {
	return &NmLister{Tool: "nm"}
}

func (n *NmLister) List(binary string) ([]RawSymbol, error) {
	out, err := runTool(n.Tool, "-o", binary)
	if err != nil {
		return nil, fmt.Errorf("running %s on %s: %w", n.Tool, binary, err)
	}
	return parseNmLines(strings.Split(string(out), "\n")), nil
}

// FileLister reads a listing previously captured with "nm -o".
type FileLister struct {
	loader *DataLoader
}

func NewFileLister(path string) *FileLister {
	return &FileLister{loader: NewDataLoader(path)}
}

// List ignores binary: the listing was captured ahead of time.
func (f *FileLister) List(binary string) ([]RawSymbol, error) {
	lines, err := f.loader.ReadLines()
	if err != nil {
		return nil, fmt.Errorf("reading symbol listing %s: %w", f.loader.Path, err)
	}
	return parseNmLines(lines), nil
}

// Format: "/usr/bin/prog:0000000000401000 T main" for defined symbols and
// "/usr/bin/prog:                 U puts" for undefined ones. Listings
// produced without "-o" have no path prefix and are accepted too.
func parseNmLines(lines []string) []RawSymbol {
	syms := make([]RawSymbol, 0, len(lines))
	for _, line := range lines {
		parts := strings.Fields(line)
		switch {
		case len(parts) >= 3:
			addr := parts[0]
			if i := strings.LastIndexByte(addr, ':'); i >= 0 {
				addr = addr[i+1:]
			}
			syms = append(syms, RawSymbol{Addr: addr, Kind: parts[1], Name: parts[2]})
		case len(parts) == 2:
			syms = append(syms, RawSymbol{Kind: parts[0], Name: parts[1]})
		default:
			if len(parts) > 0 {
				slog.Debug("Skipping short nm line", "line", line)
			}
		}
	}
	return syms
}

func runTool(tool string, args ...string) ([]byte, error) {
	cmd := exec.Command(tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}
