package plugins

import (
	"fmt"

	"github.com/strutworks/strut/pkg/conf"
)

// Origin says where a plugin's record came from.
type Origin int

const (
	// OriginStatic marks a plugin linked into the executable.
	OriginStatic Origin = iota
	// OriginDynamic marks a plugin discovered through a descriptor in the
	// plugin directory.
	OriginDynamic
	// OriginAdHoc marks a transient record created by loading a library
	// file directly.
	OriginAdHoc
)

func (o Origin) String() string {
	switch o {
	case OriginStatic:
		return "static"
	case OriginDynamic:
		return "dynamic"
	case OriginAdHoc:
		return "ad-hoc"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Metadata is the parsed descriptor of one plugin.
type Metadata struct {
	name     string
	iface    string
	depends  []string
	provides []string
	origin   Origin

	configuration        *conf.Group
	initialConfiguration *conf.Group
}

// Name returns the plugin identifier.
func (m *Metadata) Name() string { return m.name }

// Interface returns the declared interface string.
func (m *Metadata) Interface() string { return m.iface }

// Depends returns the identifiers of plugins this one depends on, in
// descriptor order.
func (m *Metadata) Depends() []string {
	out := make([]string, len(m.depends))
	copy(out, m.depends)
	return out
}

// Provides returns the aliases this plugin offers, in descriptor order.
func (m *Metadata) Provides() []string {
	out := make([]string, len(m.provides))
	copy(out, m.provides)
	return out
}

// Origin returns where the plugin record came from.
func (m *Metadata) Origin() Origin { return m.origin }

// Configuration returns the plugin-specific configuration subtree. The
// returned group is mutable; changes apply to instances created afterwards.
func (m *Metadata) Configuration() *conf.Group { return m.configuration }

// InitialConfiguration returns the pristine configuration as parsed from the
// descriptor.
func (m *Metadata) InitialConfiguration() *conf.Group { return m.initialConfiguration }

func (m *Metadata) providesAlias(alias string) bool {
	for _, p := range m.provides {
		if p == alias {
			return true
		}
	}
	return false
}

// metadataFromConfiguration builds plugin metadata from a parsed descriptor.
// An interface declaration is required for anything that is not static.
func metadataFromConfiguration(name string, c *conf.Configuration, origin Origin) (*Metadata, error) {
	root := c.Root()

	iface := root.Value("interface")
	if iface == "" && origin != OriginStatic {
		return nil, fmt.Errorf("descriptor of plugin %s declares no interface", name)
	}

	initial := root.Group("configuration")
	if initial == nil {
		initial = conf.NewGroup("configuration")
	}

	return &Metadata{
		name:                 name,
		iface:                iface,
		depends:              root.Values("depends"),
		provides:             root.Values("provides"),
		origin:               origin,
		configuration:        initial.Clone(),
		initialConfiguration: initial,
	}, nil
}

// syntheticMetadata builds minimal metadata for plugins that have no
// descriptor: static plugins without an embedded one and ad-hoc loads
// without an adjacent file.
func syntheticMetadata(name, iface string, origin Origin) *Metadata {
	return &Metadata{
		name:                 name,
		iface:                iface,
		origin:               origin,
		configuration:        conf.NewGroup("configuration"),
		initialConfiguration: conf.NewGroup("configuration"),
	}
}
