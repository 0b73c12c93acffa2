package plugins

import (
	"errors"
	"fmt"
)

// Sentinel errors underlying the *LoadError values returned from manager
// operations. Test with errors.Is.
var (
	ErrNotFound              = errors.New("plugin not found")
	ErrWrongPluginVersion    = errors.New("wrong plugin version")
	ErrWrongInterfaceVersion = errors.New("wrong interface string")
	ErrWrongMetadataFile     = errors.New("wrong or missing metadata file")
	ErrUnresolvedDependency  = errors.New("unresolved dependency")
	ErrLoadFailed            = errors.New("cannot load plugin")
	ErrUnloadFailed          = errors.New("cannot unload plugin")
	ErrRequired              = errors.New("plugin is required by another loaded plugin")
	ErrUsed                  = errors.New("plugin has live instances")
	ErrNotLoaded             = errors.New("plugin is not loaded")
	ErrDirectLoadConflict    = errors.New("plugin already registered under the derived identifier")
	ErrManagerClosed         = errors.New("manager is closed")
)

// LoadError is the structured failure of a load, unload or instantiate
// operation. It carries enough context to render a diagnostic without
// further queries.
type LoadError struct {
	// Plugin is the identifier the operation resolved to, or the key as
	// given when resolution failed.
	Plugin string
	// State is the load state the operation reports.
	State LoadState
	// Dependency is the first offending dependency (UnresolvedDependency)
	// or reverse dependency (Required).
	Dependency string
	// Symbol is the missing or ill-typed library symbol, when that is what
	// failed the load.
	Symbol string
	// Instances is the live instance count that blocked an unload.
	Instances int
	// Err is the underlying cause: one of the package sentinels, possibly
	// wrapping an OS diagnostic.
	Err error
}

func (e *LoadError) Error() string {
	switch {
	case e.Dependency != "" && e.State == UnresolvedDependency:
		return fmt.Sprintf("plugin %s: %v: %s", e.Plugin, e.Err, e.Dependency)
	case e.Dependency != "" && e.State == Required:
		return fmt.Sprintf("plugin %s: %v (required by %s)", e.Plugin, e.Err, e.Dependency)
	case e.Symbol != "":
		return fmt.Sprintf("plugin %s: %v: symbol %s", e.Plugin, e.Err, e.Symbol)
	case e.Instances > 0:
		return fmt.Sprintf("plugin %s: %v (%d live)", e.Plugin, e.Err, e.Instances)
	default:
		return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }
