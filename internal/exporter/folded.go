package exporter

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// BuildFoldedStacks turns call paths into flamegraph.pl "folded" keys.
func BuildFoldedStacks(paths []CallPath) map[string]uint64 {
	agg := make(map[string]uint64)
	for _, p := range paths {
		if len(p.Frames) == 0 {
			continue
		}
		names := make([]string, 0, len(p.Frames))
		for _, name := range p.Frames {
			names = append(names, escapeFoldedName(name))
		}
		agg[strings.Join(names, ";")] += p.Count
	}
	return agg
}

func escapeFoldedName(name string) string {
	// semicolons separate frames and newlines separate lines
	name = strings.ReplaceAll(name, ";", "_")
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "<unknown>"
	}
	return name
}

// WriteFoldedStacksToFile writes one "stack count" line per path, highest
// count first.
func WriteFoldedStacksToFile(paths []CallPath, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	type kv struct {
		k string
		v uint64
	}
	var items []kv
	for k, v := range BuildFoldedStacks(paths) {
		items = append(items, kv{k, v})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].v == items[j].v {
			return items[i].k < items[j].k
		}
		return items[i].v > items[j].v
	})

	w := bufio.NewWriter(f)
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "%s %d\n", it.k, it.v); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
