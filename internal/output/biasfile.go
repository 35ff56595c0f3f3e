package output

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// WriteBiasFile persists biases in the sensor vendor's text format, one
// "value % name" line per bias.
func WriteBiasFile(path string, biases map[string]int) error {
	names := make([]string, 0, len(biases))
	for name := range biases {
		names = append(names, name)
	}
	sort.Strings(names)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%d %% %s\n", biases[name], name); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func ReadBiasFile(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	biases := make(map[string]int)
	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		value, name, found := strings.Cut(line, "%")
		if !found {
			return nil, fmt.Errorf("bias file line %d: missing %% separator", lineNo+1)
		}
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("bias file line %d: %w", lineNo+1, err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("bias file line %d: missing bias name", lineNo+1)
		}
		biases[name] = v
	}
	return biases, nil
}
