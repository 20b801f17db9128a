package exporter

import (
	"sort"
	"strings"

	"github.com/VladMinzatu/calltree/internal/trace"
)

// CallPath is a root-to-leaf sequence of function names and the number of
// calls that completed with exactly that stack.
type CallPath struct {
	Frames []string
	Count  uint64
}

// CallPaths rebuilds call stacks from rendered events and counts calls per
// path. It keeps its own stack of names; the renderer only tracks depth.
type CallPaths struct {
	stack []string
	paths map[string]*CallPath
}

func NewCallPaths() *CallPaths {
	return &CallPaths{paths: make(map[string]*CallPath)}
}

func (c *CallPaths) OnEvent(ev trace.Event) {
	switch ev.Kind {
	case trace.Enter:
		c.stack = append(c.stack, ev.Name)
	case trace.Exit:
		// exits without a matching enter carry no path
		if len(c.stack) == 0 {
			return
		}
		c.record()
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Flush counts frames still open at end of stream, innermost first.
func (c *CallPaths) Flush() {
	for len(c.stack) > 0 {
		c.record()
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Paths returns the collected paths ordered by count, then by name.
func (c *CallPaths) Paths() []CallPath {
	out := make([]CallPath, 0, len(c.paths))
	for _, p := range c.paths {
		out = append(out, CallPath{Frames: append([]string(nil), p.Frames...), Count: p.Count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return strings.Join(out[i].Frames, ";") < strings.Join(out[j].Frames, ";")
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func (c *CallPaths) record() {
	key := strings.Join(c.stack, "\x00")
	p, ok := c.paths[key]
	if !ok {
		p = &CallPath{Frames: append([]string(nil), c.stack...)}
		c.paths[key] = p
	}
	p.Count++
}
