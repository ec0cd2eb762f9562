package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StdinPath is the path that makes LoadRequest read from standard input.
const StdinPath = "-"

// LoadRequest loads a YAML or JSON file into v. Fields absent from the file
// keep their current values, so v can be pre-filled with defaults.
func LoadRequest(path string, v any) error {
	if path == StdinPath {
		return LoadRequestFrom(os.Stdin, v)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cli: read %s: %w", path, err)
	}
	return ParseRequest(data, path, v)
}

// LoadRequestFrom reads r to EOF and parses it as JSON or YAML.
func LoadRequestFrom(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("cli: read input: %w", err)
	}
	return ParseRequest(data, "", v)
}

// ParseRequest parses data by the extension of filename. Unknown
// extensions try YAML, then JSON.
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("cli: parse YAML %s: %w", filename, err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("cli: parse JSON %s: %w", filename, err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			if err2 := json.Unmarshal(data, v); err2 != nil {
				return fmt.Errorf("cli: parse %s: not YAML (%v) or JSON (%v)", filename, err, err2)
			}
		}
	}
	return nil
}
