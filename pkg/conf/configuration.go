package conf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse errors. Errors returned from Parse and Load wrap one of these and
// carry the offending line number.
var (
	ErrMissingEquals     = errors.New("missing '=' in a key/value line")
	ErrEmptyGroupHeader  = errors.New("empty group header")
	ErrMissingBracket    = errors.New("missing closing bracket in group header")
	ErrUnterminatedValue = errors.New("unterminated quoted value")
	ErrUnclosedMultiline = errors.New("unclosed multi-line value")
)

const multilineMarker = `"""`

// Configuration is a parsed configuration file: a tree of groups hanging off
// an unnamed root group.
type Configuration struct {
	root Group
}

// New returns an empty configuration.
func New() *Configuration {
	return &Configuration{}
}

// Root returns the root group. Top-level keys and groups of the file live
// directly on it.
func (c *Configuration) Root() *Group {
	return &c.root
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

// Parse reads a configuration from r.
func Parse(r io.Reader) (*Configuration, error) {
	c := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	current := &c.root
	lineNo := 0
	first := true

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed[0] == '#' || trimmed[0] == ';' {
			continue
		}

		if trimmed[0] == '[' {
			group, err := c.enterGroup(trimmed)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = group
			continue
		}

		eq := strings.IndexByte(trimmed, '=')
		if eq < 0 {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrMissingEquals)
		}

		key := strings.TrimSpace(trimmed[:eq])
		raw := strings.TrimSpace(trimmed[eq+1:])

		switch {
		case raw == multilineMarker:
			value, consumed, err := readMultiline(scanner)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			lineNo += consumed
			current.AddValue(key, value)

		case strings.HasPrefix(raw, `"`):
			if len(raw) < 2 || !strings.HasSuffix(raw, `"`) {
				return nil, fmt.Errorf("line %d: %w", lineNo, ErrUnterminatedValue)
			}
			current.AddValue(key, raw[1:len(raw)-1])

		default:
			current.AddValue(key, raw)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	return c, nil
}

// enterGroup resolves a `[a/b/c]` header into a group, creating intermediate
// groups as needed. The final path component always opens a fresh group so
// repeated headers produce repeated groups.
func (c *Configuration) enterGroup(header string) (*Group, error) {
	if !strings.HasSuffix(header, "]") {
		return nil, ErrMissingBracket
	}
	name := strings.TrimSpace(header[1 : len(header)-1])
	if name == "" {
		return nil, ErrEmptyGroupHeader
	}

	parts := strings.Split(name, "/")
	group := &c.root
	for i, part := range parts {
		if part == "" {
			return nil, ErrEmptyGroupHeader
		}
		if i == len(parts)-1 {
			group = group.AddGroup(part)
			continue
		}
		next := lastGroup(group, part)
		if next == nil {
			next = group.AddGroup(part)
		}
		group = next
	}
	return group, nil
}

func lastGroup(g *Group, name string) *Group {
	for i := len(g.groups) - 1; i >= 0; i-- {
		if g.groups[i].name == name {
			return g.groups[i]
		}
	}
	return nil
}

// readMultiline consumes lines until the closing marker. Returns the joined
// value and the number of consumed lines.
func readMultiline(scanner *bufio.Scanner) (string, int, error) {
	var lines []string
	consumed := 0
	for scanner.Scan() {
		consumed++
		line := scanner.Text()
		if strings.TrimSpace(line) == multilineMarker {
			return strings.Join(lines, "\n"), consumed, nil
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", consumed, err
	}
	return "", consumed, ErrUnclosedMultiline
}

// Save writes the configuration to the file at path.
func (c *Configuration) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer f.Close()

	if err := c.Write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Write serializes the configuration to w in a form Parse round-trips.
func (c *Configuration) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeGroup(bw, &c.root, nil); err != nil {
		return err
	}
	return bw.Flush()
}

func writeGroup(w *bufio.Writer, g *Group, path []string) error {
	if len(path) > 0 {
		if _, err := fmt.Fprintf(w, "[%s]\n", strings.Join(path, "/")); err != nil {
			return err
		}
	}
	for _, kv := range g.values {
		if err := writeValue(w, kv.key, kv.value); err != nil {
			return err
		}
	}
	for _, child := range g.groups {
		if err := writeGroup(w, child, append(path, child.name)); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(w *bufio.Writer, key, value string) error {
	switch {
	case strings.Contains(value, "\n"):
		_, err := fmt.Fprintf(w, "%s=%s\n%s\n%s\n", key, multilineMarker, value, multilineMarker)
		return err
	case value != strings.TrimSpace(value) || strings.HasPrefix(value, `"`):
		_, err := fmt.Fprintf(w, "%s=\"%s\"\n", key, value)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s=%s\n", key, value)
		return err
	}
}
