package apidoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Version is the output document format version.
const Version = 1

// Document is the full output: a format version and the symbols keyed by FQN
// in request order.
type Document struct {
	Version int
	Symbols *orderedmap.OrderedMap[string, Symbol]
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Version: Version,
		Symbols: orderedmap.New[string, Symbol](),
	}
}

// Add records sym under its FQN. A repeated FQN keeps its first position
// and takes the new value.
func (d *Document) Add(sym Symbol) {
	d.Symbols.Set(sym.FQN, sym)
}

// Len returns the number of symbols.
func (d *Document) Len() int {
	return d.Symbols.Len()
}

// MarshalJSON encodes the document compactly, keeping symbol order and
// leaving HTML characters unescaped.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	fmt.Fprintf(&buf, `{"version":%d,"symbols":{`, d.Version)
	first := true
	for pair := d.Symbols.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := enc.Encode(pair.Key); err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", pair.Key, err)
		}
		trimNewline(&buf)
		buf.WriteByte(':')
		if err := enc.Encode(pair.Value); err != nil {
			return nil, fmt.Errorf("failed to encode symbol %q: %w", pair.Key, err)
		}
		trimNewline(&buf)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// Encode renders the document. Pretty output uses two-space indentation and
// ends with the platform line separator. Compact output separates items with
// ", " and keys with ": " as Python's json.dump does, with no trailing newline.
func (d *Document) Encode(pretty bool) ([]byte, error) {
	// Called directly rather than through json.Marshal, which would re-escape HTML.
	data, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if !pretty {
		return spaceSeparators(data), nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent document: %w", err)
	}
	buf.WriteString(lineSeparator())
	return buf.Bytes(), nil
}

// Write encodes the document and writes it to path, creating parent
// directories and replacing any existing file.
func (d *Document) Write(path string, pretty bool) error {
	data, err := d.Encode(pretty)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// spaceSeparators adds a space after every structural comma and colon of
// compact JSON. String contents are left untouched.
func spaceSeparators(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/8)
	inString, escaped := false, false
	for _, c := range data {
		out = append(out, c)
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && (c == ',' || c == ':'):
			out = append(out, ' ')
		}
	}
	return out
}

func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}

func lineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}
