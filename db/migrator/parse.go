package migrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	opUp   = "up"
	opDown = "down"
)

var (
	filenameRx = regexp.MustCompile(`^(\d+)\.(.+)\.sql$`)
	markerRx   = regexp.MustCompile(`(?i)^--\s+(up|down)\b`)

	slotNames = [2]string{"first operation", "second operation"}
)

// marker is an operation marker line found in a migration file.
type marker struct {
	op         string
	start, end int // offsets of the marker line, including its newline
}

// block is the command text that follows a marker.
type block struct {
	op  string
	cmd string
}

// IsMigrationFile returns true if filename follows the `{id}.{name}.sql`
// naming scheme. Other files are ignored.
func IsMigrationFile(filename string) bool {
	return filenameRx.MatchString(filename)
}

// Parse parses the content of a migration file. The content must contain
// exactly one `-- up` and one `-- down` block, in any order. Any text before
// the first block is ignored.
func Parse(filename, content string) (Migration, error) {
	match := filenameRx.FindStringSubmatch(filename)
	if match == nil {
		return Migration{}, fmt.Errorf("invalid migration file name '%s'", filename)
	}

	var problems []string
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid migration id %s", match[1]))
	}

	blocks := splitBlocks(content, findMarkers(content))
	problems = append(problems, checkBlocks(blocks)...)
	if len(problems) > 0 {
		return Migration{}, &ValidationError{File: filename, Problems: problems}
	}

	m := Migration{ID: id, Name: match[2], File: filename}
	for _, b := range blocks {
		if b.op == opUp {
			m.Up = b.cmd
		} else {
			m.Down = b.cmd
		}
	}

	return m, nil
}

// findMarkers returns all marker lines in content, in order.
func findMarkers(content string) []marker {
	var markers []marker
	for start := 0; start < len(content); {
		end := len(content)
		if i := strings.IndexByte(content[start:], '\n'); i >= 0 {
			end = start + i + 1
		}
		if m := markerRx.FindStringSubmatch(content[start:end]); m != nil {
			markers = append(markers, marker{op: strings.ToLower(m[1]), start: start, end: end})
		}
		start = end
	}

	return markers
}

// splitBlocks slices content into the text following each marker, up to the
// next marker or the end of content.
func splitBlocks(content string, markers []marker) []block {
	blocks := make([]block, len(markers))
	for i, mk := range markers {
		end := len(content)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		blocks[i] = block{op: mk.op, cmd: strings.TrimSpace(content[mk.end:end])}
	}

	return blocks
}

// checkBlocks returns all problems found in blocks. It doesn't stop at the
// first problem.
func checkBlocks(blocks []block) []string {
	var (
		problems []string
		ops      [2]string
	)

	for i := range ops {
		if i < len(blocks) {
			ops[i] = blocks[i].op
		} else {
			problems = append(problems, "invalid operation "+slotNames[i])
		}
	}

	if ops[0] != "" && ops[0] == ops[1] {
		problems = append(problems,
			"duplicate operation "+ops[0],
			fmt.Sprintf("invalid operation %s (expected %s)", slotNames[1], opposite(ops[0])),
		)
	}

	for i := range ops {
		if i < len(blocks) && blocks[i].cmd != "" {
			continue
		}
		label := ops[i]
		if label == "" {
			label = slotNames[i]
		}
		problems = append(problems, "empty command for "+label)
	}

	for i := len(ops); i < len(blocks); i++ {
		problems = append(problems, "unexpected operation "+blocks[i].op)
	}

	return problems
}

func opposite(op string) string {
	if op == opUp {
		return opDown
	}
	return opUp
}
