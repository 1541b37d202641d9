// SPDX-License-Identifier: EUPL-1.2

package csvio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadSeries parses a headerless single-column CSV of floats, the format of
// custom curve files. Blank lines are skipped; a trailing comma-separated
// row is rejected.
func ReadSeries(r io.Reader) ([]float64, error) {
	var values []float64

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	return values, nil
}

// ReadSeriesFile reads a curve file from disk.
func ReadSeriesFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}
