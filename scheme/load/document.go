package load

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format of a scheme document.
type Format string

// Document formats.
const (
	Auto    Format = ""
	JSON    Format = "json"
	YAML    Format = "yaml"
	Msgpack Format = "msgpack"
)

// FormatOf returns the document format of a file by its extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	case ".msgpack", ".mpk":
		return Msgpack
	}
	return Auto
}

// Parse decodes a scheme document. The Auto format tries JSON, then YAML.
func Parse(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("load: empty document")
	}
	doc := &Document{}
	var err error
	switch format {
	case JSON:
		err = json.Unmarshal(data, doc)
	case YAML:
		err = yaml.Unmarshal(data, doc)
	case Msgpack:
		err = msgpack.Unmarshal(data, doc)
	case Auto:
		if err = json.Unmarshal(data, doc); err != nil {
			doc = &Document{}
			if yaml.Unmarshal(data, doc) != nil {
				return nil, fmt.Errorf("load: invalid JSON or YAML document")
			}
			err = nil
		}
	default:
		return nil, fmt.Errorf("load: unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("load: decode %s: %w", format, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Marshal encodes a scheme document.
func Marshal(doc *Document, format Format) ([]byte, error) {
	switch format {
	case JSON, Auto:
		return json.MarshalIndent(doc, "", "  ")
	case YAML:
		return yaml.Marshal(doc)
	case Msgpack:
		return msgpack.Marshal(doc)
	}
	return nil, fmt.Errorf("load: unknown format %q", format)
}

// File reads a scheme document from a file.
func File(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	doc, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return doc, nil
}

func (d *Document) validate() error {
	seen := make(map[string]struct{}, len(d.Schemes))
	for i, s := range d.Schemes {
		if s == nil || s.Name == "" {
			return fmt.Errorf("load: scheme %d has no name", i)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("load: duplicate scheme %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
