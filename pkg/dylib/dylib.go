package dylib

import (
	"fmt"
	"path/filepath"
	"plugin"
	"runtime"
)

// Library is an opened dynamic library.
type Library interface {
	// Lookup resolves an exported symbol by name.
	Lookup(symbol string) (any, error)
	// Close releases the library. Best-effort; an error is surfaced but the
	// library must be considered unusable either way.
	Close() error
}

// Loader opens dynamic libraries.
type Loader interface {
	Open(path string) (Library, error)
}

// OpenError reports a failed library open, carrying the OS diagnostic.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open library %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// SymbolError reports a failed symbol resolution.
type SymbolError struct {
	Path   string
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("cannot resolve symbol %s in %s: %v", e.Symbol, e.Path, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

// CloseError reports a failed library close.
type CloseError struct {
	Path string
	Err  error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("cannot close library %s: %v", e.Path, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }

// Suffix returns the dynamic library filename suffix for the host OS.
func Suffix() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// NewLoader returns the platform loader backed by the Go plugin runtime.
func NewLoader() Loader {
	return osLoader{}
}

type osLoader struct{}

func (osLoader) Open(path string) (Library, error) {
	native := filepath.FromSlash(path)
	p, err := plugin.Open(native)
	if err != nil {
		return nil, &OpenError{Path: native, Err: err}
	}
	return &osLibrary{path: native, plugin: p}, nil
}

type osLibrary struct {
	path   string
	plugin *plugin.Plugin
}

func (l *osLibrary) Lookup(symbol string) (any, error) {
	sym, err := l.plugin.Lookup(symbol)
	if err != nil {
		return nil, &SymbolError{Path: l.path, Symbol: symbol, Err: err}
	}
	return sym, nil
}

// Close is a recorded no-op: the Go runtime keeps loaded plugin code mapped
// for the process lifetime and offers no unlink.
func (l *osLibrary) Close() error {
	return nil
}
