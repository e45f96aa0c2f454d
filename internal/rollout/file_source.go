package rollout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileSource reads flags from a YAML file. Nested maps are flattened with
// dotted keys, so both of these set rollout.max_fx_quality:
//
//	rollout.max_fx_quality: 2
//
//	rollout:
//	  max_fx_quality: 2
type FileSource struct {
	Path string
}

// NewFileSource returns a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// LoadFlags implements FlagSource. A missing file yields no flags.
func (s *FileSource) LoadFlags(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read flags file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flags file: %w", err)
	}

	out := make(map[string]string)
	flatten("", raw, out)
	return out, nil
}

// SetFlag implements FlagWriter by rewriting the file with flat keys.
func (s *FileSource) SetFlag(ctx context.Context, key, value string) error {
	flags, err := s.LoadFlags(ctx)
	if err != nil {
		return err
	}
	flags[key] = value
	return s.write(flags)
}

// DeleteFlag removes key from the file. Removing an absent key is a no-op.
func (s *FileSource) DeleteFlag(ctx context.Context, key string) error {
	flags, err := s.LoadFlags(ctx)
	if err != nil {
		return err
	}
	if _, ok := flags[key]; !ok {
		return nil
	}
	delete(flags, key)
	return s.write(flags)
}

func (s *FileSource) write(flags map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create flags directory: %w", err)
	}
	data, err := yaml.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to marshal flags: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write flags file: %w", err)
	}
	return nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			// Lists are accepted for the allow-list and joined back into the
			// comma form the parser expects.
			joined := ""
			for i, item := range val {
				if i > 0 {
					joined += ","
				}
				joined += fmt.Sprint(item)
			}
			out[key] = joined
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
