package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	Passthrough Kind = iota
	Enter
	Exit
)

func (k Kind) String() string {
	switch k {
	case Enter:
		return "enter"
	case Exit:
		return "exit"
	default:
		return "passthrough"
	}
}

// Markers and token positions of the producer's event lines:
//
//	e func: 0x401136 caller: 0x4011a2 time: 1718000000 nm_addr: 0x401136
const (
	EnterMarker = "e"
	ExitMarker  = "x"

	funcToken      = 2
	callerToken    = 4
	timestampToken = 6
	addrToken      = 8
)

var ErrMalformedRecord = errors.New("malformed trace record")

// Record is one parsed trace line. Timestamp and Addr are only meaningful
// for events; Func and Caller are zero when the producer left them out.
type Record struct {
	Kind      Kind
	Timestamp uint64
	Addr      uint64
	Func      uint64
	Caller    uint64
}

func ParseRecord(line string) (Record, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Record{}, fmt.Errorf("%w: empty line", ErrMalformedRecord)
	}

	var rec Record
	switch parts[0] {
	case EnterMarker:
		rec.Kind = Enter
	case ExitMarker:
		rec.Kind = Exit
	default:
		return Record{Kind: Passthrough}, nil
	}

	if len(parts) <= addrToken {
		return Record{}, fmt.Errorf("%w: expected at least %d fields, got %d", ErrMalformedRecord, addrToken+1, len(parts))
	}
	ts, err := strconv.ParseUint(parts[timestampToken], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedRecord, parts[timestampToken], err)
	}
	addr, err := parseHexAddr(parts[addrToken])
	if err != nil {
		return Record{}, fmt.Errorf("%w: address %q: %v", ErrMalformedRecord, parts[addrToken], err)
	}
	rec.Timestamp = ts
	rec.Addr = addr

	// best effort, these positions are informational
	rec.Func, _ = parseHexAddr(parts[funcToken])
	rec.Caller, _ = parseHexAddr(parts[callerToken])
	return rec, nil
}

// parseHexAddr accepts both "401000" and the "0x401000" form printed by %p.
func parseHexAddr(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}
