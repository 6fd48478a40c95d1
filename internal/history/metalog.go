package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AppendMetaLog appends one metadata record as a single line to the
// line-delimited JSON log at path, creating parent directories as needed.
func AppendMetaLog(meta map[string]any, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metadata directory: %w", err)
		}
	}

	line, err := json.Marshal(sanitizeJSON(meta))
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open metadata log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append metadata: %w", err)
	}
	return nil
}

// sanitizeJSON strips values that do not belong in the log: underscore-keyed
// internals and anything that is not a plain JSON shape.
func sanitizeJSON(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if len(key) > 0 && key[0] == '_' {
				continue
			}
			out[key] = sanitizeJSON(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, sanitizeJSON(item))
		}
		return out
	case string, bool, nil, float64, int, int64, json.Number:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
