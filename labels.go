package rknpu

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the class names the model was trained with from a text
// file holding one label per line, the line number being the class index.
// Trailing blank lines are dropped.
func LoadLabels(file string) ([]string, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening labels file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels file: %w", err)
	}

	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	return labels, nil
}

// Label returns the name of class idx, or the index itself formatted as a
// string when labels does not cover it
func Label(labels []string, idx int) string {

	if idx >= 0 && idx < len(labels) && labels[idx] != "" {
		return labels[idx]
	}

	return fmt.Sprintf("class %d", idx)
}
