package coordinator

import (
	"bufio"
	"io"
	"strings"
)

// parseDepfile reads a Makefile-style depfile (as produced by `gcc -MD`)
// and returns the dependency paths listed after the first colon, across
// however many lines backslash-continuation spans.
func parseDepfile(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var joined strings.Builder
	for sc.Scan() {
		line := sc.Text()
		if strings.HasSuffix(line, "\\") {
			joined.WriteString(strings.TrimSuffix(line, "\\"))
			joined.WriteByte(' ')
			continue
		}
		joined.WriteString(line)
		joined.WriteByte(' ')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	text := joined.String()
	if idx := strings.Index(text, ":"); idx >= 0 {
		text = text[idx+1:]
	}

	fields := strings.Fields(text)
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `\ `, " ")
		if f != "" {
			paths = append(paths, f)
		}
	}
	return paths, nil
}
