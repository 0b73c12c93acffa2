package plugins

import (
	"sort"

	"github.com/strutworks/strut/pkg/dylib"
)

// record is the registry's per-plugin state.
type record struct {
	name     string
	metadata *Metadata
	state    LoadState

	// Valid only while state is Loaded.
	instancer   Instancer
	initializer func()
	finalizer   func()
	library     dylib.Library

	staticPlugin *StaticPlugin

	// usedBy holds identifiers of currently loaded plugins that list this
	// one as a dependency, possibly from external managers.
	usedBy []string
	// depManagers records, per dependency, the external manager it was
	// resolved in. Local dependencies are absent.
	depManagers map[string]*Manager
	// instances counts live instances produced from this plugin.
	instances int
	// transient records are created by direct-file loads and removed from
	// the registry on unload.
	transient bool
	// shadowed is the dormant directory record a transient one displaced;
	// it is put back when the transient record is removed.
	shadowed *record
	// libraryPath overrides the directory-derived library path for
	// transient records.
	libraryPath string
}

func (r *record) addUsedBy(name string) {
	for _, u := range r.usedBy {
		if u == name {
			return
		}
	}
	r.usedBy = append(r.usedBy, name)
}

func (r *record) removeUsedBy(name string) {
	for i, u := range r.usedBy {
		if u == name {
			r.usedBy = append(r.usedBy[:i], r.usedBy[i+1:]...)
			return
		}
	}
}

// registry owns the set of known plugins of one manager. All methods assume
// the owning manager's lock is held.
type registry struct {
	records map[string]*record
	// order preserves registration order; alias precedence follows it.
	order []string
	// aliases maps alias to the plugin identifier it currently resolves to.
	aliases map[string]string
	// loading is the gray set of an in-progress dependency walk; a repeat
	// visit closes a cycle.
	loading map[string]bool
}

func newRegistry() *registry {
	return &registry{
		records: make(map[string]*record),
		aliases: make(map[string]string),
		loading: make(map[string]bool),
	}
}

// add registers a record. The caller guarantees the name is free.
func (r *registry) add(rec *record) {
	r.records[rec.name] = rec
	r.order = append(r.order, rec.name)
}

// remove drops a record and every alias pointing at it.
func (r *registry) remove(name string) {
	delete(r.records, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for alias, target := range r.aliases {
		if target == name {
			delete(r.aliases, alias)
		}
	}
}

// resolve matches a key first against plugin identifiers, then against the
// alias table.
func (r *registry) resolve(key string) *record {
	if rec, ok := r.records[key]; ok {
		return rec
	}
	if target, ok := r.aliases[key]; ok {
		return r.records[target]
	}
	return nil
}

// rebuildAliases rebuilds the alias table from the provides lists in
// registration order: the first registered provider of an alias wins. Any
// preference set through SetPreferredPlugins is discarded.
func (r *registry) rebuildAliases() {
	r.aliases = make(map[string]string)
	for _, name := range r.order {
		rec := r.records[name]
		for _, alias := range rec.metadata.Provides() {
			if _, taken := r.aliases[alias]; !taken {
				r.aliases[alias] = name
			}
		}
	}
}

// pluginNames returns the registered identifiers, sorted.
func (r *registry) pluginNames() []string {
	out := make([]string, 0, len(r.records))
	for name := range r.records {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// aliasNames returns the known aliases, sorted.
func (r *registry) aliasNames() []string {
	out := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
