// Package loader provides program-image loading for the RV32IMF
// simulator: a text file of whitespace-separated two-character hex bytes
// becomes the flat instruction byte array the pipeline fetches from.
package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MaxProgramSize is the upper bound on a loaded instruction image, per §6.
const MaxProgramSize = 4 * 1024

// Load reads path and parses it as whitespace-separated two-character hex
// bytes in program order; each pair becomes one byte at increasing
// addresses. The returned slice's length is maxPC.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return Parse(data)
}

// Parse decodes the hex-byte text format directly from an in-memory
// buffer, without touching the filesystem.
func Parse(data []byte) ([]byte, error) {
	fields := strings.Fields(string(data))
	if len(fields) > MaxProgramSize {
		return nil, fmt.Errorf("loader: program image exceeds %d bytes (%d hex tokens)", MaxProgramSize, len(fields))
	}

	program := make([]byte, len(fields))
	for i, tok := range fields {
		b, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("loader: token %d (%q) is not a hex byte: %w", i, tok, err)
		}
		program[i] = byte(b)
	}
	return program, nil
}
