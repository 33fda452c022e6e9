package detmap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadValues reads a detector map in text form: whitespace separated
// integers, anything after a '#' is a comment. Hex values (0x...) are
// accepted so model words can be written as in the hardware manuals.
func ReadValues(r io.Reader) ([]int, error) {
	values := make([]int, 0)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		for _, field := range strings.Fields(line) {
			value, err := strconv.ParseInt(field, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q: %w", lineNumber, field, err)
			}
			values = append(values, int(value))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading detector map values: %w", err)
	}
	return values, nil
}

// ParseFillFlags converts flag names as found in the configuration file
// ("logical", "model", "refindex", "noclear") into FillFlags.
func ParseFillFlags(names []string) (FillFlags, error) {
	var flags FillFlags
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "logical":
			flags |= FillLogicalChannel
		case "model":
			flags |= FillModel
		case "refindex":
			flags |= FillRefIndex
		case "noclear":
			flags |= DoNotClear
		case "":
		default:
			return 0, fmt.Errorf("unknown fill flag %q", name)
		}
	}
	return flags, nil
}
