package plugins

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StaticPlugin is one node of the process-global static plugin list. Every
// statically linked plugin reserves one node in its own compilation unit and
// imports it at program start through ImportStatic.
type StaticPlugin struct {
	Name        string
	Interface   string
	Instancer   Instancer
	Initializer func()
	Finalizer   func()

	// next links the node into the global list. A non-nil next marks the
	// node as already linked; the list ends in a sentinel, not nil.
	next *StaticPlugin
}

// staticEnd terminates the global static plugin list.
var staticEnd = &StaticPlugin{}

// staticPlugins is the head of the global static plugin list.
var staticPlugins = staticEnd

// ImportStatic fills a pre-allocated node and links it into the global
// static plugin list. Idempotent per node: importing an already-linked node
// is a no-op, so the same plugin pulled into the executable through several
// paths is recorded once.
//
// The version argument must be the Version constant the plugin was built
// against; on mismatch the node is rejected with an error and ignored.
func ImportStatic(node *StaticPlugin, version int, name, iface string, instancer Instancer, initializer, finalizer func()) error {
	if node == nil {
		panic("plugins: ImportStatic called with nil node")
	}
	if version != Version {
		return fmt.Errorf("static plugin %s: version mismatch, expected %d but got %d", name, Version, version)
	}
	if node.next != nil {
		return nil
	}

	node.Name = name
	node.Interface = iface
	node.Instancer = instancer
	node.Initializer = initializer
	node.Finalizer = finalizer

	node.next = staticPlugins
	staticPlugins = node

	// Static plugins are loaded for the process lifetime, so the initialize
	// hook runs here and the finalize hook in RemoveStatic.
	if node.Initializer != nil {
		node.Initializer()
	}

	logrus.StandardLogger().Debugf("plugins: imported static plugin %s (%s)", name, iface)
	return nil
}

// RemoveStatic unlinks a node from the global list. Removing a node that is
// not linked is a no-op. Intended for tests and for images that are unloaded
// from the process.
func RemoveStatic(node *StaticPlugin) {
	if node == nil || node.next == nil {
		return
	}
	if staticPlugins == node {
		staticPlugins = node.next
	} else {
		for cur := staticPlugins; cur != staticEnd; cur = cur.next {
			if cur.next == node {
				cur.next = node.next
				break
			}
		}
	}
	node.next = nil
	if node.Finalizer != nil {
		node.Finalizer()
	}
}

// staticPluginsFor returns the linked nodes declaring the given interface,
// most recently imported first.
func staticPluginsFor(iface string) []*StaticPlugin {
	var out []*StaticPlugin
	for cur := staticPlugins; cur != staticEnd; cur = cur.next {
		if cur.Interface == iface {
			out = append(out, cur)
		}
	}
	return out
}
