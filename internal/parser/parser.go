// Package parser decodes the "long" machine listing printed by VBoxManage
// (list --long vms, showvminfo) into machine records.
//
// The listing is a flat key/value dump with one repeating sub-structure
// (snapshots) and no delimiters beyond indentation and literal markers, so
// it is decoded line by line with a single accumulator:
//
//   - a "Name" line at column 0 that does not end in "*" starts a machine
//   - a "Name" line (any indentation) ending in "*" is a snapshot
//   - "Groups", "UART 1", "UUID:", "State:" and "Internal Network" lines
//     fill fields of the current machine
//   - everything else is ignored
//
// A record is handed to the caller only when its group contains the scan
// group; everything else is dropped.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jbweber/vbsnap/internal/machine"
	"github.com/jbweber/vbsnap/internal/naming"
)

const (
	labelName            = "Name"
	labelGroups          = "Groups"
	labelUART            = "UART 1"
	labelUUID            = "UUID:"
	labelState           = "State:"
	labelInternalNetwork = "Internal Network"

	// snapshotMarker ends every snapshot line the parser picks up.
	snapshotMarker = "*"

	// maxLineSize bounds a single listing line.
	maxLineSize = 1024 * 1024
)

var (
	consolePortPattern = regexp.MustCompile(`'(\d+)'`)
	networkNamePattern = regexp.MustCompile(`'([^']+)'`)
)

// ErrMalformedInput is the sentinel every MalformedInputError unwraps to.
var ErrMalformedInput = errors.New("malformed tool output")

// MalformedInputError reports a line that should carry a required token
// but does not.
type MalformedInputError struct {
	// Line is the 1-based line number within the parsed text.
	Line int
	// Text is the offending line.
	Text string
	// Reason says which token was missing.
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed tool output at line %d (%s): %q", e.Line, e.Reason, e.Text)
}

// Unwrap makes errors.Is(err, ErrMalformedInput) work.
func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// Records returns a lazy sequence of the records described by r whose group
// contains group.
//
// On malformed input the sequence yields one zero record with a
// *MalformedInputError and stops.
func Records(r io.Reader, group string) iter.Seq2[machine.Record, error] {
	return func(yield func(machine.Record, error) bool) {
		d := &decoder{group: group}

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			rec, ok, err := d.step(scanner.Text())
			if err != nil {
				yield(machine.Record{}, err)
				return
			}
			if ok && !yield(rec, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(machine.Record{}, fmt.Errorf("failed to read tool output: %w", err))
			return
		}

		if rec, ok := d.flush(); ok {
			yield(rec, nil)
		}
	}
}

// ParseAll decodes text completely. Either every matching record is
// returned or, on the first error, none are.
func ParseAll(text, group string) ([]machine.Record, error) {
	var records []machine.Record
	for rec, err := range Records(strings.NewReader(text), group) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// NICOrdinal returns the zero-based adapter index encoded in a network line.
//
// VBoxManage prints adapters as "NIC <n>:" with the adapter number at byte
// offset 4, so "NIC 2: ... Internal Network 'x'" is adapter index 1. Only a
// single digit is read there; adapters numbered 10 and above are not
// supported by this rule.
func NICOrdinal(line string) (int, error) {
	const offset = 4

	if len(line) <= offset {
		return 0, fmt.Errorf("line too short for adapter number at offset %d", offset)
	}
	c := line[offset]
	if c < '0' || c > '9' {
		return 0, fmt.Errorf("no adapter digit at offset %d (found %q)", offset, c)
	}
	idx := int(c-'0') - 1
	if idx < 0 {
		return 0, fmt.Errorf("adapter number 0 at offset %d is out of range", offset)
	}
	return idx, nil
}

// decoder holds the record currently being assembled.
type decoder struct {
	group   string
	current *machine.Record
	lineNo  int
}

// step consumes one line. It returns a finished record when the line starts
// a new machine and the previous one passed the group filter.
func (d *decoder) step(raw string) (machine.Record, bool, error) {
	d.lineNo++
	line := strings.TrimRight(raw, "\r")
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, labelName) && !strings.HasSuffix(trimmed, snapshotMarker):
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return machine.Record{}, false, d.malformed(line, "machine header without a name")
		}
		prev, ok := d.flush()
		d.current = &machine.Record{Name: fields[len(fields)-1]}
		return prev, ok, nil

	case strings.HasPrefix(trimmed, labelName) && strings.HasSuffix(trimmed, snapshotMarker):
		if d.current == nil {
			return machine.Record{}, false, nil
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return machine.Record{}, false, d.malformed(line, "snapshot line without a name")
		}
		d.current.Snapshots = append(d.current.Snapshots, fields[1])

	case strings.HasPrefix(line, labelGroups):
		if d.current == nil {
			return machine.Record{}, false, nil
		}
		if fields := strings.Fields(line); len(fields) > 1 {
			d.current.Group = fields[len(fields)-1]
		}

	case strings.HasPrefix(line, labelUART):
		if d.current == nil {
			return machine.Record{}, false, nil
		}
		m := consolePortPattern.FindStringSubmatch(line)
		if m == nil {
			return machine.Record{}, false, d.malformed(line, "console port line without a quoted port")
		}
		port, err := strconv.Atoi(m[1])
		if err != nil {
			return machine.Record{}, false, d.malformed(line, "console port out of range")
		}
		d.current.ConsolePort = port

	case strings.HasPrefix(line, labelUUID):
		if d.current == nil {
			return machine.Record{}, false, nil
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return machine.Record{}, false, d.malformed(line, "UUID line without a value")
		}
		id, err := uuid.Parse(fields[len(fields)-1])
		if err != nil {
			return machine.Record{}, false, d.malformed(line, "invalid machine UUID")
		}
		d.current.UUID = id.String()

	case strings.HasPrefix(line, labelState):
		if d.current == nil {
			return machine.Record{}, false, nil
		}
		state := strings.TrimSpace(strings.TrimPrefix(line, labelState))
		if i := strings.Index(state, " (since"); i >= 0 {
			state = state[:i]
		}
		d.current.State = state

	case strings.Contains(line, labelInternalNetwork):
		if d.current == nil {
			return machine.Record{}, false, nil
		}
		m := networkNamePattern.FindStringSubmatch(line)
		if m == nil {
			return machine.Record{}, false, d.malformed(line, "internal network line without a quoted network name")
		}
		idx, err := NICOrdinal(line)
		if err != nil {
			return machine.Record{}, false, d.malformed(line, err.Error())
		}
		if d.current.Networks == nil {
			d.current.Networks = machine.Networks{}
		}
		d.current.Networks[naming.InterfaceKey(idx)] = m[1]
	}

	return machine.Record{}, false, nil
}

// flush hands out the current record if it passes the group filter and
// clears the accumulator either way.
func (d *decoder) flush() (machine.Record, bool) {
	rec := d.current
	d.current = nil
	if rec == nil || !strings.Contains(rec.Group, d.group) {
		return machine.Record{}, false
	}
	return *rec, true
}

func (d *decoder) malformed(line, reason string) error {
	return &MalformedInputError{Line: d.lineNo, Text: line, Reason: reason}
}
