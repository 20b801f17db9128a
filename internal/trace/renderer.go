package trace

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	unresolvedName = "??"
	enterGlyph     = `\`
	exitGlyph      = "/"
	passGlyph      = "|"
	defaultIndent  = " "
	defaultGutter  = "           "
)

// Resolver maps an event address to a printable name.
type Resolver interface {
	Lookup(addr uint64) (string, bool)
}

// Event is what observers see for every rendered enter or exit line.
type Event struct {
	Kind      Kind
	Timestamp uint64
	Addr      uint64
	Name      string
	Depth     int
}

type Observer interface {
	OnEvent(ev Event)
}

type Stats struct {
	Records     int
	Events      int
	Passthrough int
	Unresolved  int
	Malformed   int
	Underflows  int
	MaxDepth    int
	Depth       int
}

type Option func(*Renderer)

// WithIndent sets the string repeated once per nesting level.
func WithIndent(unit string) Option {
	return func(r *Renderer) { r.indent = unit }
}

// WithGutter sets the fixed prefix of passthrough lines.
func WithGutter(gutter string) Option {
	return func(r *Renderer) { r.gutter = gutter }
}

func WithObserver(o Observer) Option {
	return func(r *Renderer) { r.observers = append(r.observers, o) }
}

// Renderer turns enter/exit records into an indented call tree. Only the
// current depth is tracked, not the names of open frames.
type Renderer struct {
	resolver  Resolver
	out       io.Writer
	indent    string
	gutter    string
	observers []Observer
	depth     int
	stats     Stats
}

func NewRenderer(resolver Resolver, out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		resolver: resolver,
		out:      out,
		indent:   defaultIndent,
		gutter:   defaultGutter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Stats() Stats {
	s := r.stats
	s.Depth = r.depth
	return s
}

// Render consumes src until end of stream. Malformed event records are
// logged and skipped; only read and write failures are returned.
func (r *Renderer) Render(src *LineReader) error {
	for {
		line, err := src.Next()
		if err == io.EOF {
			slog.Debug("End of trace stream", "records", r.stats.Records, "depth", r.depth)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading trace stream: %w", err)
		}
		if err := r.renderLine(line); err != nil {
			return fmt.Errorf("writing rendered trace: %w", err)
		}
	}
}

func (r *Renderer) renderLine(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	r.stats.Records++

	rec, err := ParseRecord(line)
	if err != nil {
		r.stats.Malformed++
		slog.Warn("Skipping malformed trace record", "line", strings.TrimSuffix(line, "\n"), "error", err)
		return nil
	}

	switch rec.Kind {
	case Enter:
		r.depth++
		if r.depth > r.stats.MaxDepth {
			r.stats.MaxDepth = r.depth
		}
		return r.emit(rec, enterGlyph)
	case Exit:
		if r.depth == 0 {
			r.stats.Underflows++
			slog.Warn("Exit record without matching enter", "addr", fmt.Sprintf("%x", rec.Addr), "timestamp", rec.Timestamp)
			return r.emit(rec, exitGlyph)
		}
		err := r.emit(rec, exitGlyph)
		r.depth--
		return err
	default:
		r.stats.Passthrough++
		content := strings.TrimSuffix(line, "\n")
		_, err := fmt.Fprintf(r.out, "%s%s%s %s\n", r.gutter, strings.Repeat(r.indent, r.depth), passGlyph, content)
		return err
	}
}

func (r *Renderer) emit(rec Record, glyph string) error {
	r.stats.Events++
	name, ok := r.resolver.Lookup(rec.Addr)
	if !ok {
		r.stats.Unresolved++
		name = unresolvedName
	}
	if _, err := fmt.Fprintf(r.out, "%d%s%s %s\n", rec.Timestamp, strings.Repeat(r.indent, r.depth), glyph, name); err != nil {
		return err
	}
	ev := Event{Kind: rec.Kind, Timestamp: rec.Timestamp, Addr: rec.Addr, Name: name, Depth: r.depth}
	for _, o := range r.observers {
		o.OnEvent(ev)
	}
	return nil
}
