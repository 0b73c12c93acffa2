// Package plugins implements a runtime registry for interchangeable
// implementations of well-defined interfaces.
//
// # Overview
//
// A Manager is bound to one interface string and a plugin directory. It
// discovers descriptor files in the directory, registers their metadata,
// loads plugin libraries on demand with dependency ordering, and produces
// live instances through each plugin's instancer.
//
// Plugins come in two flavors. Dynamic plugins live in shared libraries next
// to their descriptor and are brought in through a dylib.Loader. Static
// plugins are linked into the executable and register themselves into a
// process-global list; they are considered permanently loaded.
//
// # Usage Example
//
//	manager, err := plugins.NewManager("cz.example.AbstractFilter/1.0", plugins.Options{
//		PluginDirectory: "/usr/lib/myapp/filters",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer manager.Close()
//
//	if state, err := manager.Load("Blur"); err != nil {
//		log.Fatalf("cannot load Blur (%s): %v", state, err)
//	}
//	filter, err := manager.Instantiate("Blur")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer filter.Close()
//
// # Thread Safety
//
// Mutating operations (Load, Unload, Instantiate, SetPluginDirectory,
// ReloadPluginDirectory, SetPreferredPlugins, RegisterExternalManager) take
// an internal lock and may be called without external serialization, but
// managers registered as external dependencies of each other must not form
// cycles. Read-only queries are safe concurrently with each other.
//
// # Related Packages
//
//   - pkg/dylib: dynamic library loading abstraction
//   - pkg/conf: descriptor file format
//   - pkg/resource: embedded metadata for static plugins
package plugins
