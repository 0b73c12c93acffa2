package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/strutworks/strut/pkg/conf"
)

// Entry is one file destined for a compiled resource group.
type Entry struct {
	// Name is the filename the entry is looked up under.
	Name string
	// Data is the payload.
	Data []byte
}

// Compile builds the flat-array trio for a group. Entries are sorted by name
// so lookups can binary-search the filename table.
func Compile(name string, entries []Entry) (*GroupData, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return nil, fmt.Errorf("duplicate resource filename '%s' in group '%s'", sorted[i].Name, name)
		}
	}

	g := &GroupData{Name: name}
	var filenameEnd, dataEnd uint64
	for _, e := range sorted {
		filenameEnd += uint64(len(e.Name))
		dataEnd += uint64(len(e.Data))
		if filenameEnd > math.MaxUint32 || dataEnd > math.MaxUint32 {
			return nil, fmt.Errorf("resource group '%s' exceeds 4 GiB", name)
		}

		g.Filenames = append(g.Filenames, e.Name...)
		g.Data = append(g.Data, e.Data...)

		var pos [positionEntrySize]byte
		binary.BigEndian.PutUint32(pos[0:], uint32(filenameEnd))
		binary.BigEndian.PutUint32(pos[4:], uint32(dataEnd))
		g.Positions = append(g.Positions, pos[:]...)
	}
	return g, nil
}

// ParseDefinition reads a resource definition file: a top-level group= key
// naming the group and one [file] group per payload file with filename= and
// an optional alias=. Payload paths are resolved relative to the definition
// file and read in.
func ParseDefinition(path string) (string, []Entry, error) {
	c, err := conf.Load(path)
	if err != nil {
		return "", nil, err
	}

	name := c.Root().Value("group")
	if name == "" {
		return "", nil, fmt.Errorf("%s: missing top-level 'group' key", path)
	}

	dir := filepath.Dir(path)
	var entries []Entry
	for _, file := range c.Root().Groups("file") {
		source := file.Value("filename")
		if source == "" {
			return "", nil, fmt.Errorf("%s: [file] group without 'filename' key", path)
		}
		alias := file.Value("alias")
		if alias == "" {
			alias = filepath.Base(filepath.FromSlash(source))
		}

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(source)))
		if err != nil {
			return "", nil, fmt.Errorf("failed to read resource file: %w", err)
		}
		entries = append(entries, Entry{Name: alias, Data: data})
	}

	return name, entries, nil
}

// GenerateGo emits a Go source file that declares the group's flat arrays
// and registers the group from an init function.
func GenerateGo(pkg string, g *GroupData) []byte {
	ident := "resource" + exportIdent(g.Name)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by rc. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "import \"github.com/strutworks/strut/pkg/resource\"\n\n")
	fmt.Fprintf(&buf, "var %s = resource.GroupData{\n", ident)
	fmt.Fprintf(&buf, "\tName: %q,\n", g.Name)
	writeByteField(&buf, "Filenames", g.Filenames)
	writeByteField(&buf, "Positions", g.Positions)
	writeByteField(&buf, "Data", g.Data)
	fmt.Fprintf(&buf, "}\n\n")
	fmt.Fprintf(&buf, "func init() {\n\tresource.Register(&%s)\n}\n", ident)
	return buf.Bytes()
}

// GenerateSingle emits a Go source file exporting the raw bytes of a single
// file as a byte array plus its size.
func GenerateSingle(pkg, name string, data []byte) []byte {
	ident := exportIdent(name)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by rc. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "var %sData = []byte{", ident)
	writeByteRows(&buf, data)
	fmt.Fprintf(&buf, "}\n\n")
	fmt.Fprintf(&buf, "var %sSize = len(%sData)\n", ident, ident)
	return buf.Bytes()
}

func writeByteField(buf *bytes.Buffer, field string, data []byte) {
	fmt.Fprintf(buf, "\t%s: []byte{", field)
	writeByteRows(buf, data)
	fmt.Fprintf(buf, "},\n")
}

const bytesPerRow = 16

func writeByteRows(buf *bytes.Buffer, data []byte) {
	if len(data) == 0 {
		return
	}
	for i, b := range data {
		if i%bytesPerRow == 0 {
			buf.WriteString("\n\t\t")
		}
		fmt.Fprintf(buf, "0x%02x, ", b)
	}
	buf.WriteString("\n\t")
}

// exportIdent turns an arbitrary group or file name into an exported Go
// identifier.
func exportIdent(name string) string {
	var out strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			out.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		out.WriteRune(r)
	}
	if out.Len() == 0 || unicode.IsDigit(rune(out.String()[0])) {
		return "Group" + out.String()
	}
	return out.String()
}
