package plugins

import "strings"

// Version is the plugin version the runtime agrees on with every plugin.
// A dynamic library or static plugin node built against a different version
// is rejected.
const Version = 5

// Names of the symbols every dynamic plugin library must export. The exact
// spelling is a wire contract and must not change across versions.
const (
	SymVersion     = "PluginVersion"     // func() int
	SymInterface   = "PluginInterface"   // func() string
	SymInstancer   = "PluginInstancer"   // Instancer
	SymInitializer = "PluginInitializer" // func()
	SymFinalizer   = "PluginFinalizer"   // func()
)

// Instancer produces a new instance of a plugin. The returned value must
// implement the interface the owning manager is bound to.
type Instancer func(manager *Manager, plugin string) (Plugin, error)

// LoadState describes the state of a plugin, or the outcome of a load or
// unload operation. States are bits so a set of acceptable states can be
// tested with a single mask.
type LoadState uint16

const (
	// NotFound means no plugin is known under the given identifier or alias.
	NotFound LoadState = 1 << iota
	// WrongPluginVersion means the plugin was built against a different
	// runtime plugin version and cannot be loaded.
	WrongPluginVersion
	// WrongInterfaceVersion means the plugin declares a different interface
	// string than the manager is bound to.
	WrongInterfaceVersion
	// WrongMetadataFile means the descriptor file is missing or failed to
	// parse.
	WrongMetadataFile
	// UnresolvedDependency means a dependency could not be loaded.
	UnresolvedDependency
	// LoadFailed means the OS refused to load the library or a required
	// symbol is missing.
	LoadFailed
	// Static marks a statically linked plugin. Permanently loaded.
	Static
	// NotLoaded means the plugin is known but its code is not loaded.
	NotLoaded
	// UnloadFailed means the OS refused to close the library.
	UnloadFailed
	// Required means unload was refused because a loaded plugin depends on
	// this one.
	Required
	// Used means unload was refused because live instances exist.
	Used
	// Loaded means the plugin code is loaded and instances can be created.
	Loaded
)

var loadStateNames = map[LoadState]string{
	NotFound:              "NotFound",
	WrongPluginVersion:    "WrongPluginVersion",
	WrongInterfaceVersion: "WrongInterfaceVersion",
	WrongMetadataFile:     "WrongMetadataFile",
	UnresolvedDependency:  "UnresolvedDependency",
	LoadFailed:            "LoadFailed",
	Static:                "Static",
	NotLoaded:             "NotLoaded",
	UnloadFailed:          "UnloadFailed",
	Required:              "Required",
	Used:                  "Used",
	Loaded:                "Loaded",
}

// Is reports whether the state matches any bit of mask.
func (s LoadState) Is(mask LoadState) bool {
	return s&mask != 0
}

func (s LoadState) String() string {
	if name, ok := loadStateNames[s]; ok {
		return name
	}
	var parts []string
	for bit := NotFound; bit != 0 && bit <= Loaded; bit <<= 1 {
		if s&bit != 0 {
			parts = append(parts, loadStateNames[bit])
		}
	}
	if len(parts) == 0 {
		return "LoadState(0)"
	}
	return strings.Join(parts, "|")
}
