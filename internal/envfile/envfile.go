// Package envfile reads and writes the plain-text KEY=VALUE credentials
// artifact consumed by the agent CLI at startup. Parsing preserves comments,
// blank lines and entry order so that a loaded file can be written back
// without clobbering operator edits.
package envfile

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	bencherrors "github.com/bch9248/benchctl/internal/errors"
)

const (
	kindBlank = iota
	kindComment
	kindPair
)

// FileMode is the permission applied to files written by this package.
// Doctor flags anything looser.
const FileMode = 0600

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// line is a single physical line of the file. Pair lines keep their raw text
// so untouched entries survive a save byte-for-byte.
type line struct {
	kind  int
	raw   string
	key   string
	value string
	dirty bool
}

// Entry is a key/value pair that is effective in the parsed document,
// with the line number of the assignment that wins.
type Entry struct {
	Key   string
	Value string
	Line  int
}

// Warning describes a non-fatal parse finding (malformed line, duplicate key).
type Warning struct {
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// Document is a parsed env file.
type Document struct {
	path     string
	lines    []line
	warnings []Warning
}

// New returns an empty document that will be saved to path.
func New(path string) *Document {
	return &Document{path: path}
}

// Load parses the file at path leniently: malformed lines are skipped and
// recorded as warnings, duplicate keys resolve last-wins with a warning.
// A missing file is reported as ErrEnvFileMissing.
func Load(path string) (*Document, error) {
	return load(path, false)
}

// LoadStrict parses the file at path and fails on the first malformed line.
// Duplicate keys still resolve last-wins and are reported as warnings.
func LoadStrict(path string) (*Document, error) {
	return load(path, true)
}

func load(path string, strict bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, bencherrors.ErrEnvFileMissing)
		}
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return Parse(path, data, strict)
}

// Parse parses raw env file content. The path is used only for error and
// warning messages.
func Parse(path string, data []byte, strict bool) (*Document, error) {
	doc := &Document{path: path}
	seen := make(map[string]int) // key -> line number of previous assignment

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	rows := strings.Split(text, "\n")
	// A trailing newline produces one empty final element; drop it so saving
	// does not grow the file by one blank line per round trip.
	if n := len(rows); n > 0 && rows[n-1] == "" {
		rows = rows[:n-1]
	}

	for i, raw := range rows {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			doc.lines = append(doc.lines, line{kind: kindBlank, raw: raw})
			continue
		case strings.HasPrefix(trimmed, "#"):
			doc.lines = append(doc.lines, line{kind: kindComment, raw: raw})
			continue
		}

		assign := strings.TrimPrefix(trimmed, "export ")
		eq := strings.Index(assign, "=")
		if eq < 0 {
			if strict {
				return nil, bencherrors.NewMalformedLineError(path, lineNo, trimmed)
			}
			doc.warnings = append(doc.warnings, Warning{
				Line:    lineNo,
				Message: fmt.Sprintf("skipped malformed line %q (expected KEY=VALUE)", trimmed),
			})
			continue
		}

		key := strings.TrimSpace(assign[:eq])
		if key == "" || strings.ContainsAny(key, " \t") {
			if strict {
				return nil, bencherrors.NewMalformedLineError(path, lineNo, trimmed)
			}
			doc.warnings = append(doc.warnings, Warning{
				Line:    lineNo,
				Message: fmt.Sprintf("skipped malformed line %q (invalid key)", trimmed),
			})
			continue
		}

		value := unquote(strings.TrimSpace(assign[eq+1:]))

		if prev, dup := seen[key]; dup {
			doc.warnings = append(doc.warnings, Warning{
				Line:    lineNo,
				Message: fmt.Sprintf("duplicate key %q overrides line %d", key, prev),
			})
		}
		seen[key] = lineNo

		doc.lines = append(doc.lines, line{kind: kindPair, raw: raw, key: key, value: value})
	}

	return doc, nil
}

// Path returns the file path this document was loaded from or will be saved to.
func (d *Document) Path() string {
	return d.path
}

// Warnings returns the findings recorded while parsing.
func (d *Document) Warnings() []Warning {
	return d.warnings
}

// Get returns the effective value for key (last assignment wins).
func (d *Document) Get(key string) (string, bool) {
	value := ""
	found := false
	for _, l := range d.lines {
		if l.kind == kindPair && l.key == key {
			value = l.value
			found = true
		}
	}
	return value, found
}

// Map returns the effective key/value mapping with last-wins duplicates.
func (d *Document) Map() map[string]string {
	m := make(map[string]string)
	for _, l := range d.lines {
		if l.kind == kindPair {
			m[l.key] = l.value
		}
	}
	return m
}

// Entries returns the effective pairs in file order of their winning
// assignments.
func (d *Document) Entries() []Entry {
	last := make(map[string]int)
	for i, l := range d.lines {
		if l.kind == kindPair {
			last[l.key] = i
		}
	}

	var entries []Entry
	for i, l := range d.lines {
		if l.kind == kindPair && last[l.key] == i {
			entries = append(entries, Entry{Key: l.key, Value: l.value, Line: i + 1})
		}
	}
	return entries
}

// Keys returns the effective key names in file order.
func (d *Document) Keys() []string {
	entries := d.Entries()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Len returns the number of effective entries.
func (d *Document) Len() int {
	return len(d.Entries())
}

// Set assigns value to key. An existing entry is rewritten in place; earlier
// duplicates of the same key are dropped so the saved file holds each key at
// most once. A key never seen before is appended.
func (d *Document) Set(key, value string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}

	lastIdx := -1
	for i, l := range d.lines {
		if l.kind == kindPair && l.key == key {
			lastIdx = i
		}
	}

	if lastIdx < 0 {
		d.lines = append(d.lines, line{kind: kindPair, key: key, value: value, dirty: true})
		return nil
	}

	kept := d.lines[:0]
	for i, l := range d.lines {
		if l.kind == kindPair && l.key == key && i != lastIdx {
			continue
		}
		if i == lastIdx {
			l.value = value
			l.dirty = true
		}
		kept = append(kept, l)
	}
	d.lines = kept
	return nil
}

// Unset removes every assignment of key and reports whether any existed.
func (d *Document) Unset(key string) bool {
	removed := false
	kept := d.lines[:0]
	for _, l := range d.lines {
		if l.kind == kindPair && l.key == key {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	d.lines = kept
	return removed
}

// Render serializes the document. Untouched lines are emitted verbatim;
// added or updated entries are written as KEY="VALUE".
func (d *Document) Render() string {
	var b strings.Builder
	for _, l := range d.lines {
		if l.kind == kindPair && l.dirty {
			b.WriteString(l.key)
			b.WriteString("=")
			b.WriteString(quote(l.value))
		} else {
			b.WriteString(l.raw)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Save writes the document to its path with 0600 permissions.
func (d *Document) Save() error {
	if d.path == "" {
		return fmt.Errorf("document has no path")
	}
	if err := os.WriteFile(d.path, []byte(d.Render()), FileMode); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}

// IsValidKey reports whether key is acceptable for Set.
func IsValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// unquote strips one balanced layer of single or double quotes. Inside double
// quotes, \" and \\ unescape; single-quoted values are literal.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}

	if s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}

	if s[0] == '"' && s[len(s)-1] == '"' {
		inner := s[1 : len(s)-1]
		var b strings.Builder
		escaped := false
		for _, r := range inner {
			if escaped {
				switch r {
				case '"', '\\':
					b.WriteRune(r)
				default:
					b.WriteRune('\\')
					b.WriteRune(r)
				}
				escaped = false
				continue
			}
			if r == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(r)
		}
		if escaped {
			b.WriteRune('\\')
		}
		return b.String()
	}

	return s
}

// quote wraps a value in double quotes, escaping embedded quotes and
// backslashes so unquote reverses it exactly.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
