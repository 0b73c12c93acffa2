// Package resource provides access to data files compiled directly into the
// executable, grouped under named resource groups.
//
// # Overview
//
// Each group is compiled into a trio of flat byte arrays: a sorted filename
// table, a position table and the concatenated payload. Lookup is a binary
// search over the filename table, with no allocation.
//
// Groups register themselves into a process-global intrusive list, typically
// from init functions emitted by the rc tool. Registration is idempotent per
// node so the same group linked into the executable through several paths is
// recorded exactly once.
//
// # Development Overrides
//
// A group may be overridden with a resource configuration file on disk.
// Lookups then consult the file first, re-parsing it on every call so edits
// are picked up live, and fall back to the compiled-in data on any failure.
// Overridden bytes are cached in the store instance until the next override
// change.
//
// # Usage Example
//
//	store, err := resource.NewStore("shaders")
//	if err != nil {
//		log.Fatal(err)
//	}
//	src, err := store.Get("phong.vert")
//
// # Thread Safety
//
// Register, Unregister, OverrideGroup and ClearOverride mutate process-global
// state and must be externally serialized. Read operations are safe
// concurrently once no mutator is running.
package resource
