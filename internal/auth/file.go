package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// readList reads a JSON array of phone numbers. A missing file is created
// holding an empty array.
func readList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeList(path, []string{}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Older files hold bare numbers as well as strings.
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case string:
			out = append(out, n)
		case float64:
			out = append(out, fmt.Sprintf("%.0f", n))
		}
	}
	return out, nil
}

// writeList replaces the file atomically: the list is written to a temp file
// in the same directory which is then renamed over the target.
func writeList(path string, numbers []string) error {
	if numbers == nil {
		numbers = []string{}
	}
	data, err := json.MarshalIndent(numbers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
