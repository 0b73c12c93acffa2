package resource

import (
	"encoding/binary"
	"sort"
)

// GroupData is one compiled-in resource group: a sorted filename table, a
// position table and the concatenated payload, all flat byte arrays as
// emitted by the rc tool.
//
// The position table holds one 8-byte entry per file: a big-endian uint32
// end position into Filenames followed by a big-endian uint32 end position
// into Data. Entry i's payload spans from entry i-1's end position (zero for
// the first entry) to entry i's.
type GroupData struct {
	Name      string
	Filenames []byte
	Positions []byte
	Data      []byte

	// next links the group into the process-global list. A non-nil next
	// marks the group as already registered; the list is terminated by a
	// sentinel node rather than nil so the marker stays unambiguous.
	next *GroupData
}

const positionEntrySize = 8

// listEnd terminates the global group list.
var listEnd = &GroupData{}

// groups is the head of the global group list.
var groups = listEnd

// Register links a compiled-in group into the global list. Safe to call from
// init functions. Registering an already-registered group is a no-op.
func Register(g *GroupData) {
	if g == nil || g.next != nil {
		return
	}
	g.next = groups
	groups = g
}

// Unregister removes a group from the global list. Unregistering a group
// that is not registered is a no-op.
func Unregister(g *GroupData) {
	if g == nil || g.next == nil {
		return
	}
	if groups == g {
		groups = g.next
		g.next = nil
		return
	}
	for cur := groups; cur != listEnd; cur = cur.next {
		if cur.next == g {
			cur.next = g.next
			g.next = nil
			return
		}
	}
	g.next = nil
}

// HasGroup reports whether a compiled-in group with the given name is
// registered.
func HasGroup(name string) bool {
	return findGroup(name) != nil
}

func findGroup(name string) *GroupData {
	for cur := groups; cur != listEnd; cur = cur.next {
		if cur.Name == name {
			return cur
		}
	}
	return nil
}

// count returns the number of files in the group.
func (g *GroupData) count() int {
	return len(g.Positions) / positionEntrySize
}

func (g *GroupData) filenamePos(i int) int {
	if i < 0 {
		return 0
	}
	return int(binary.BigEndian.Uint32(g.Positions[i*positionEntrySize:]))
}

func (g *GroupData) dataPos(i int) int {
	if i < 0 {
		return 0
	}
	return int(binary.BigEndian.Uint32(g.Positions[i*positionEntrySize+4:]))
}

// filename returns the i-th filename in the sorted table.
func (g *GroupData) filename(i int) string {
	return string(g.Filenames[g.filenamePos(i-1):g.filenamePos(i)])
}

// data returns the i-th payload as a subslice of Data. The slice aliases the
// compiled-in array and must not be modified.
func (g *GroupData) data(i int) []byte {
	return g.Data[g.dataPos(i-1):g.dataPos(i)]
}

// find binary-searches the sorted filename table. Returns the entry index or
// -1 when absent.
func (g *GroupData) find(filename string) int {
	n := g.count()
	i := sort.Search(n, func(i int) bool { return g.filename(i) >= filename })
	if i < n && g.filename(i) == filename {
		return i
	}
	return -1
}

// filenames returns every filename in table order.
func (g *GroupData) filenames() []string {
	out := make([]string, 0, g.count())
	for i := 0; i < g.count(); i++ {
		out = append(out, g.filename(i))
	}
	return out
}
