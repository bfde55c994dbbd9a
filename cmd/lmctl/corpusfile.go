package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readSequences reads one token sequence per line from path, tokens given
// as whitespace-separated unsigned integers. Blank lines are skipped.
func readSequences(path string) ([][]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file %q: %w", path, err)
	}
	defer f.Close()

	var sequences [][]uint32
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		seq := make([]uint32, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseUint(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("corpus file %q line %d: invalid token %q: %w", path, lineNum, field, err)
			}
			seq[i] = uint32(v)
		}
		sequences = append(sequences, seq)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan corpus file %q: %w", path, err)
	}
	return sequences, nil
}
