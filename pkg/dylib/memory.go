package dylib

import (
	"errors"
	"path/filepath"
	"sync"
)

// ErrLibraryNotFound is the underlying error of an OpenError for a path the
// MemoryLoader has no library registered under.
var ErrLibraryNotFound = errors.New("no such library")

// ErrSymbolNotFound is the underlying error of a SymbolError for a symbol a
// MemoryLibrary does not export.
var ErrSymbolNotFound = errors.New("no such symbol")

// MemoryLibrary is an in-process symbol table posing as a dynamic library.
type MemoryLibrary struct {
	// Symbols maps symbol name to the exported value, typically a function.
	Symbols map[string]any
	// CloseErr, when set, is returned from Close. Lets tests exercise
	// unload failure paths.
	CloseErr error

	path   string
	closed bool
}

// Lookup resolves a symbol from the table.
func (l *MemoryLibrary) Lookup(symbol string) (any, error) {
	sym, ok := l.Symbols[symbol]
	if !ok {
		return nil, &SymbolError{Path: l.path, Symbol: symbol, Err: ErrSymbolNotFound}
	}
	return sym, nil
}

// Close marks the library closed, or fails with the rigged error.
func (l *MemoryLibrary) Close() error {
	if l.CloseErr != nil {
		return &CloseError{Path: l.path, Err: l.CloseErr}
	}
	l.closed = true
	return nil
}

// Closed reports whether Close succeeded at least once.
func (l *MemoryLibrary) Closed() bool {
	return l.closed
}

// MemoryLoader serves predeclared libraries keyed by path.
type MemoryLoader struct {
	mu        sync.RWMutex
	libraries map[string]*MemoryLibrary
}

// NewMemoryLoader creates an empty in-memory loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{libraries: make(map[string]*MemoryLibrary)}
}

// Add registers a library under path. Forward slashes are accepted and
// normalized the same way Open normalizes its argument.
func (l *MemoryLoader) Add(path string, lib *MemoryLibrary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lib.path = filepath.FromSlash(path)
	l.libraries[lib.path] = lib
}

// Remove drops the library registered under path, if any.
func (l *MemoryLoader) Remove(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.libraries, filepath.FromSlash(path))
}

// Open returns the library registered under path.
func (l *MemoryLoader) Open(path string) (Library, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	native := filepath.FromSlash(path)
	lib, ok := l.libraries[native]
	if !ok {
		return nil, &OpenError{Path: native, Err: ErrLibraryNotFound}
	}
	lib.closed = false
	return lib, nil
}
