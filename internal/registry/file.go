package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"livecap/internal/services"
)

// FileReader reads the registry from disk on every call.
type FileReader struct {
	Path string
}

// NewFileReader returns a reader for path. The format follows the extension:
// .toml selects TOML, anything else is parsed as JSON.
func NewFileReader(path string) *FileReader {
	return &FileReader{Path: path}
}

func (r *FileReader) Read(ctx context.Context) ([]Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrRegistry, component, "read", r.Path, err)
	}

	var sources []Source
	switch strings.ToLower(filepath.Ext(r.Path)) {
	case ".toml":
		sources, err = parseTOML(data)
	default:
		sources, err = parseJSON(data)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrRegistry, component, "parse", r.Path, err)
	}
	if err := Validate(sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// parseJSON walks the object token by token so entries keep file order and
// duplicate keys are surfaced instead of silently collapsed.
func parseJSON(data []byte) ([]Source, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty registry document")
		}
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("registry must be a JSON object of id to address")
	}

	var sources []Source
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}
		var address string
		if err := dec.Decode(&address); err != nil {
			return nil, fmt.Errorf("source %q: address must be a string: %w", id, err)
		}
		sources = append(sources, Source{ID: id, Address: strings.TrimSpace(address)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after registry object")
	}
	return sources, nil
}

func parseTOML(data []byte) ([]Source, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var sources []Source
	for key, value := range doc {
		switch v := value.(type) {
		case string:
			sources = append(sources, Source{ID: key, Address: strings.TrimSpace(v)})
		case map[string]any:
			if key != "streams" {
				return nil, fmt.Errorf("unexpected table %q", key)
			}
			for id, raw := range v {
				stream, ok := raw.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("streams.%s must be a table", id)
				}
				source, ok := stream["source"].(string)
				if !ok {
					return nil, fmt.Errorf("streams.%s.source must be a string", id)
				}
				sources = append(sources, Source{ID: id, Address: strings.TrimSpace(source)})
			}
		default:
			return nil, fmt.Errorf("source %q: address must be a string", key)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}
