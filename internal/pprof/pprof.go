package pprof

import (
	"io"
	"os"

	"github.com/VladMinzatu/calltree/internal/exporter"
	"github.com/google/pprof/profile"
)

// BuildCallProfile converts call paths into a pprof profile whose single
// sample type counts calls. Each distinct function name gets one function
// and one location.
func BuildCallProfile(paths []exporter.CallPath) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "calls", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "calls", Unit: "count"},
		Period:     1,
	}

	locs := map[string]*profile.Location{}
	nextID := uint64(1)

	locationFor := func(name string) *profile.Location {
		if loc, ok := locs[name]; ok {
			return loc
		}
		fn := &profile.Function{ID: nextID, Name: name, SystemName: name}
		loc := &profile.Location{ID: nextID, Line: []profile.Line{{Function: fn}}}
		nextID++
		locs[name] = loc
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		return loc
	}

	for _, path := range paths {
		if len(path.Frames) == 0 {
			continue
		}
		// pprof wants leaf-first stacks
		stack := make([]*profile.Location, 0, len(path.Frames))
		for i := len(path.Frames) - 1; i >= 0; i-- {
			stack = append(stack, locationFor(path.Frames[i]))
		}
		p.Sample = append(p.Sample, &profile.Sample{
			Value:    []int64{int64(path.Count)},
			Location: stack,
		})
	}
	return p
}

// WriteProfile writes p in the gzip-compressed protobuf format pprof reads.
func WriteProfile(p *profile.Profile, w io.Writer) error {
	return p.Write(w)
}

func WriteProfileFile(p *profile.Profile, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteProfile(p, f); err != nil {
		return err
	}
	return f.Close()
}
