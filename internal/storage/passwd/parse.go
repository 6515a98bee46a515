package passwd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func readLines(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// fields splits a colon-separated record, keeping trailing empty fields.
// Blank lines and comments yield nil.
func fields(line string) []string {
	trim := strings.TrimSpace(line)
	if trim == "" || strings.HasPrefix(trim, "#") {
		return nil
	}
	return strings.Split(line, ":")
}

func atoi(field, what string, lineno int) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s %q: %w", lineno, what, field, err)
	}
	return n, nil
}
