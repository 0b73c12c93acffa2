// Package dylib abstracts loading of dynamic libraries and symbol
// resolution behind a small interface pair, Loader and Library.
//
// Two implementations are provided. NewLoader returns the platform loader
// built on the Go plugin runtime. MemoryLoader is an in-process registry of
// predeclared symbol tables, used by tests and by hosts that link their
// plugin code statically but still want to drive it through the loader
// interface.
//
// Paths are forward-slash internally and converted to OS-native separators
// at the boundary. The loader does not search system paths; callers always
// pass a full path.
package dylib
