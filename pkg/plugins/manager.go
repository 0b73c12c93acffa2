package plugins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/strutworks/strut/pkg/conf"
	"github.com/strutworks/strut/pkg/dylib"
	"github.com/strutworks/strut/pkg/resource"
)

// metadataResourceGroup is the resource group searched for embedded
// descriptors of static plugins.
const metadataResourceGroup = "plugins"

// scanParallelism bounds the number of descriptors parsed concurrently
// during a directory scan.
const scanParallelism = 4

// Manager owns the plugins of one interface: it discovers them, resolves
// their dependencies, loads and unloads their code and produces instances.
type Manager struct {
	mu sync.RWMutex

	iface          string
	dir            string
	prefix         string
	suffix         string
	metadataSuffix string

	loader  dylib.Loader
	log     *logrus.Logger
	metrics *Metrics

	reg      *registry
	external []*Manager
	// instances maps the token bound into each live instance to the plugin
	// that produced it.
	instances map[uuid.UUID]string
	closed    bool
}

// NewManager creates a manager bound to the given interface string. Static
// plugins declaring that interface are registered immediately; when the
// options name a plugin directory it is scanned for descriptors.
func NewManager(iface string, opts Options) (*Manager, error) {
	if iface == "" {
		return nil, errors.New("plugins: manager interface must not be empty")
	}
	opts.applyDefaults()

	m := &Manager{
		iface:          iface,
		dir:            opts.PluginDirectory,
		prefix:         opts.LibraryPrefix,
		suffix:         opts.LibrarySuffix,
		metadataSuffix: opts.MetadataSuffix,
		loader:         opts.Loader,
		log:            opts.Logger,
		metrics:        opts.Metrics,
		reg:            newRegistry(),
		instances:      make(map[uuid.UUID]string),
	}

	m.importStaticPlugins()
	if m.dir != "" {
		if err := m.reloadLocked(); err != nil {
			return nil, err
		}
	} else {
		m.reg.rebuildAliases()
	}
	return m, nil
}

// importStaticPlugins registers every linked static plugin declaring the
// manager's interface. Descriptors embedded in the "plugins" resource group
// take precedence over synthesized metadata.
func (m *Manager) importStaticPlugins() {
	for _, node := range staticPluginsFor(m.iface) {
		if _, exists := m.reg.records[node.Name]; exists {
			continue
		}
		m.reg.add(&record{
			name:         node.Name,
			metadata:     m.staticMetadata(node),
			state:        Static,
			instancer:    node.Instancer,
			initializer:  node.Initializer,
			finalizer:    node.Finalizer,
			staticPlugin: node,
		})
		m.log.Debugf("plugins: registered static plugin %s", node.Name)
	}
}

func (m *Manager) staticMetadata(node *StaticPlugin) *Metadata {
	if resource.HasGroup(metadataResourceGroup) {
		store, err := resource.NewStore(metadataResourceGroup, resource.WithLogger(m.log))
		if err == nil {
			if data, err := store.Get(node.Name + m.metadataSuffix); err == nil {
				c, err := conf.Parse(bytes.NewReader(data))
				if err != nil {
					m.log.Warnf("plugins: embedded descriptor of %s is invalid: %v", node.Name, err)
				} else if md, err := metadataFromConfiguration(node.Name, c, OriginStatic); err == nil {
					if md.iface == "" {
						md.iface = node.Interface
					}
					return md
				}
			}
		}
	}
	return syntheticMetadata(node.Name, node.Interface, OriginStatic)
}

// PluginInterface returns the interface string the manager is bound to.
func (m *Manager) PluginInterface() string {
	return m.iface
}

// PluginDirectory returns the directory currently scanned for plugins.
func (m *Manager) PluginDirectory() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dir
}

// PluginList returns the identifiers of all known plugins, sorted.
func (m *Manager) PluginList() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reg.pluginNames()
}

// AliasList returns all known aliases, sorted.
func (m *Manager) AliasList() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reg.aliasNames()
}

// Metadata returns the metadata of the plugin the key resolves to, or nil
// when the key matches nothing.
func (m *Manager) Metadata(key string) *Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec := m.reg.resolve(key); rec != nil {
		return rec.metadata
	}
	return nil
}

// LoadState returns the state of the plugin the key resolves to, NotFound
// when the key matches nothing.
func (m *Manager) LoadState(key string) LoadState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec := m.reg.resolve(key); rec != nil {
		return rec.state
	}
	return NotFound
}

// Load brings the plugin the key resolves to into the Loaded state,
// recursively loading its dependencies first. Loading an already loaded or
// static plugin is a no-op reporting the current state.
//
// A key containing a path separator, or ending in the configured library
// suffix, is treated as a path to a library file and loaded directly under
// an identifier derived from the filename.
func (m *Manager) Load(key string) (LoadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return NotFound, &LoadError{Plugin: key, State: NotFound, Err: ErrManagerClosed}
	}
	if m.isLibraryPath(key) {
		state, err := m.loadFile(key)
		m.metrics.observeLoad(state)
		return state, err
	}

	rec := m.reg.resolve(key)
	if rec == nil {
		return NotFound, &LoadError{Plugin: key, State: NotFound, Err: ErrNotFound}
	}
	state, err := m.loadRecord(rec)
	m.metrics.observeLoad(state)
	return state, err
}

func (m *Manager) isLibraryPath(key string) bool {
	return strings.ContainsRune(key, '/') ||
		strings.ContainsRune(key, os.PathSeparator) ||
		strings.HasSuffix(key, m.suffix)
}

// loadRecord is the dependency-walking core of Load. Caller holds the lock.
func (m *Manager) loadRecord(rec *record) (LoadState, error) {
	if rec.state.Is(Loaded | Static) {
		return rec.state, nil
	}
	if m.reg.loading[rec.name] {
		// The walk revisited a plugin it entered through: a dependency cycle.
		return UnresolvedDependency, &LoadError{
			Plugin:     rec.name,
			State:      UnresolvedDependency,
			Dependency: rec.name,
			Err:        fmt.Errorf("%w: dependency cycle", ErrUnresolvedDependency),
		}
	}
	m.reg.loading[rec.name] = true
	defer delete(m.reg.loading, rec.name)

	// Dependencies first, local registry before external managers. Already
	// loaded dependencies stay loaded if a later one fails.
	deps := rec.metadata.Depends()
	var depManagers map[string]*Manager
	for _, dep := range deps {
		if depRec := m.reg.resolve(dep); depRec != nil {
			state, err := m.loadRecord(depRec)
			if !state.Is(Loaded | Static) {
				return UnresolvedDependency, &LoadError{
					Plugin:     rec.name,
					State:      UnresolvedDependency,
					Dependency: dep,
					Err:        fmt.Errorf("%w: %v", ErrUnresolvedDependency, err),
				}
			}
			continue
		}

		ext := m.findExternal(dep)
		if ext == nil {
			return UnresolvedDependency, &LoadError{
				Plugin:     rec.name,
				State:      UnresolvedDependency,
				Dependency: dep,
				Err:        ErrUnresolvedDependency,
			}
		}
		state, err := ext.Load(dep)
		if !state.Is(Loaded | Static) {
			return UnresolvedDependency, &LoadError{
				Plugin:     rec.name,
				State:      UnresolvedDependency,
				Dependency: dep,
				Err:        fmt.Errorf("%w: %v", ErrUnresolvedDependency, err),
			}
		}
		if depManagers == nil {
			depManagers = make(map[string]*Manager)
		}
		depManagers[dep] = ext
	}

	path := rec.libraryPath
	if path == "" {
		path = filepath.Join(m.dir, m.prefix+rec.name+m.suffix)
	}
	lib, err := m.loader.Open(path)
	if err != nil {
		return LoadFailed, &LoadError{
			Plugin: rec.name,
			State:  LoadFailed,
			Err:    fmt.Errorf("%w: %v", ErrLoadFailed, err),
		}
	}

	sym, lerr := resolveSymbols(rec.name, lib)
	if lerr != nil {
		m.closeDiscarding(rec.name, lib)
		return lerr.State, lerr
	}

	// Version and interface checks come before anything from the library
	// runs; on mismatch the library is closed again and nothing sticks.
	if v := sym.version(); v != Version {
		m.closeDiscarding(rec.name, lib)
		return WrongPluginVersion, &LoadError{
			Plugin: rec.name,
			State:  WrongPluginVersion,
			Err:    fmt.Errorf("%w: expected %d, got %d", ErrWrongPluginVersion, Version, v),
		}
	}
	if got := sym.iface(); got != m.iface {
		m.closeDiscarding(rec.name, lib)
		return WrongInterfaceVersion, &LoadError{
			Plugin: rec.name,
			State:  WrongInterfaceVersion,
			Err:    fmt.Errorf("%w: expected %q, got %q", ErrWrongInterfaceVersion, m.iface, got),
		}
	}

	rec.instancer = sym.instancer
	rec.initializer = sym.initializer
	rec.finalizer = sym.finalizer
	rec.library = lib
	rec.depManagers = depManagers
	for _, dep := range deps {
		if ext, ok := depManagers[dep]; ok {
			ext.addDependent(dep, rec.name)
		} else if depRec := m.reg.resolve(dep); depRec != nil {
			depRec.addUsedBy(rec.name)
		}
	}
	rec.state = Loaded

	if rec.initializer != nil {
		rec.initializer()
	}
	m.log.WithFields(logrus.Fields{
		"plugin":    rec.name,
		"interface": m.iface,
	}).Info("plugins: loaded")
	return Loaded, nil
}

// closeDiscarding closes a library whose load was rejected. The close error
// is only logged; the rejection reason is what the caller reports.
func (m *Manager) closeDiscarding(name string, lib dylib.Library) {
	if err := lib.Close(); err != nil {
		m.log.Warnf("plugins: closing rejected library of %s: %v", name, err)
	}
}

// symbols is the typed view of the five exported entry points.
type symbols struct {
	version     func() int
	iface       func() string
	instancer   Instancer
	initializer func()
	finalizer   func()
}

// resolveSymbols looks up and type-asserts the plugin entry points. All
// five symbols are mandatory; a library missing any of them is rejected.
func resolveSymbols(name string, lib dylib.Library) (*symbols, *LoadError) {
	fail := func(symbol string, err error) *LoadError {
		return &LoadError{
			Plugin: name,
			State:  LoadFailed,
			Symbol: symbol,
			Err:    fmt.Errorf("%w: %v", ErrLoadFailed, err),
		}
	}

	var sym symbols

	v, err := lib.Lookup(SymVersion)
	if err != nil {
		return nil, fail(SymVersion, err)
	}
	version, ok := v.(func() int)
	if !ok {
		return nil, fail(SymVersion, fmt.Errorf("unexpected type %T", v))
	}
	sym.version = version

	v, err = lib.Lookup(SymInterface)
	if err != nil {
		return nil, fail(SymInterface, err)
	}
	iface, ok := v.(func() string)
	if !ok {
		return nil, fail(SymInterface, fmt.Errorf("unexpected type %T", v))
	}
	sym.iface = iface

	v, err = lib.Lookup(SymInstancer)
	if err != nil {
		return nil, fail(SymInstancer, err)
	}
	switch fn := v.(type) {
	case Instancer:
		sym.instancer = fn
	case func(*Manager, string) (Plugin, error):
		sym.instancer = fn
	default:
		return nil, fail(SymInstancer, fmt.Errorf("unexpected type %T", v))
	}

	v, err = lib.Lookup(SymInitializer)
	if err != nil {
		return nil, fail(SymInitializer, err)
	}
	initializer, ok := v.(func())
	if !ok {
		return nil, fail(SymInitializer, fmt.Errorf("unexpected type %T", v))
	}
	sym.initializer = initializer

	v, err = lib.Lookup(SymFinalizer)
	if err != nil {
		return nil, fail(SymFinalizer, err)
	}
	finalizer, ok := v.(func())
	if !ok {
		return nil, fail(SymFinalizer, fmt.Errorf("unexpected type %T", v))
	}
	sym.finalizer = finalizer

	return &sym, nil
}

// loadFile loads a library file directly, registering a transient record
// under an identifier derived from the filename. Caller holds the lock.
func (m *Manager) loadFile(path string) (LoadState, error) {
	native := filepath.FromSlash(path)
	name := m.deriveName(native)

	existing := m.reg.records[name]
	if existing != nil && !existing.transient && existing.state.Is(Loaded|Static) {
		return existing.state, &LoadError{
			Plugin: name,
			State:  existing.state,
			Err:    ErrDirectLoadConflict,
		}
	}

	rec := existing
	if rec == nil || !rec.transient {
		md, lerr := m.adHocMetadata(name, native)
		if lerr != nil {
			return lerr.State, lerr
		}
		rec = &record{
			name:        name,
			metadata:    md,
			state:       NotLoaded,
			transient:   true,
			libraryPath: native,
			// A dormant directory record is set aside while the ad-hoc one
			// exists and restored once it is gone.
			shadowed: existing,
		}
		if existing != nil {
			m.reg.remove(name)
		}
		m.reg.add(rec)
		m.reg.rebuildAliases()
	}

	state, err := m.loadRecord(rec)
	if !state.Is(Loaded) {
		m.removeTransient(rec)
	}
	return state, err
}

// removeTransient drops a transient record, putting back the dormant record
// it displaced, if any. Caller holds the lock.
func (m *Manager) removeTransient(rec *record) {
	m.reg.remove(rec.name)
	if rec.shadowed != nil {
		m.reg.add(rec.shadowed)
	}
	m.reg.rebuildAliases()
}

// deriveName turns a library path into the plugin identifier: basename with
// the configured prefix and suffix stripped.
func (m *Manager) deriveName(native string) string {
	name := filepath.Base(native)
	name = strings.TrimSuffix(name, m.suffix)
	return strings.TrimPrefix(name, m.prefix)
}

// adHocMetadata reads the descriptor next to a directly loaded library, or
// synthesizes one when no descriptor file exists.
func (m *Manager) adHocMetadata(name, native string) (*Metadata, *LoadError) {
	mdPath := strings.TrimSuffix(native, m.suffix) + m.metadataSuffix
	if _, err := os.Stat(mdPath); err != nil {
		return syntheticMetadata(name, m.iface, OriginAdHoc), nil
	}

	c, err := conf.Load(mdPath)
	if err == nil {
		md, merr := metadataFromConfiguration(name, c, OriginAdHoc)
		if merr == nil {
			return md, nil
		}
		err = merr
	}
	return nil, &LoadError{
		Plugin: name,
		State:  WrongMetadataFile,
		Err:    fmt.Errorf("%w: %v", ErrWrongMetadataFile, err),
	}
}

// Unload brings the plugin the key resolves to back to NotLoaded. Static
// plugins report Static; a plugin that is not loaded reports NotLoaded.
// Unload is refused while live instances exist (Used) or another loaded
// plugin depends on this one (Required).
func (m *Manager) Unload(key string) (LoadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.reg.resolve(key)
	if rec == nil {
		return NotFound, &LoadError{Plugin: key, State: NotFound, Err: ErrNotFound}
	}
	state, err := m.unloadRecord(rec)
	m.metrics.observeUnload(state)
	return state, err
}

// unloadRecord is the core of Unload. Caller holds the lock.
func (m *Manager) unloadRecord(rec *record) (LoadState, error) {
	if rec.state == Static {
		return Static, nil
	}
	if rec.state != Loaded {
		return NotLoaded, nil
	}
	if rec.instances > 0 {
		return Used, &LoadError{
			Plugin:    rec.name,
			State:     Used,
			Instances: rec.instances,
			Err:       ErrUsed,
		}
	}
	if len(rec.usedBy) > 0 {
		return Required, &LoadError{
			Plugin:     rec.name,
			State:      Required,
			Dependency: rec.usedBy[0],
			Err:        ErrRequired,
		}
	}

	if rec.finalizer != nil {
		rec.finalizer()
	}
	closeErr := rec.library.Close()

	// The finalizer already ran, so the record goes back to NotLoaded and
	// dependency links are dropped even when the close failed.
	for _, dep := range rec.metadata.Depends() {
		if ext, ok := rec.depManagers[dep]; ok {
			ext.removeDependent(dep, rec.name)
		} else if depRec := m.reg.resolve(dep); depRec != nil {
			depRec.removeUsedBy(rec.name)
		}
	}
	rec.state = NotLoaded
	rec.instancer = nil
	rec.initializer = nil
	rec.finalizer = nil
	rec.library = nil
	rec.depManagers = nil
	if rec.transient {
		m.removeTransient(rec)
	}

	if closeErr != nil {
		return UnloadFailed, &LoadError{
			Plugin: rec.name,
			State:  UnloadFailed,
			Err:    fmt.Errorf("%w: %v", ErrUnloadFailed, closeErr),
		}
	}
	m.log.WithField("plugin", rec.name).Info("plugins: unloaded")
	return NotLoaded, nil
}

// Instantiate produces a new instance of a loaded or static plugin. The
// instance counts against the plugin until its Close is called.
func (m *Manager) Instantiate(key string) (Plugin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, &LoadError{Plugin: key, State: NotFound, Err: ErrManagerClosed}
	}
	rec := m.reg.resolve(key)
	if rec == nil {
		return nil, &LoadError{Plugin: key, State: NotFound, Err: ErrNotFound}
	}
	if !rec.state.Is(Loaded | Static) {
		return nil, &LoadError{Plugin: rec.name, State: rec.state, Err: ErrNotLoaded}
	}

	instance, err := rec.instancer(m, rec.name)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: instantiation failed: %w", rec.name, err)
	}

	token := uuid.New()
	if binder, ok := instance.(instanceBinder); ok {
		binder.bindInstance(m, rec.name, rec.metadata, token)
	}
	m.instances[token] = rec.name
	rec.instances++
	m.metrics.observeInstantiate()
	return instance, nil
}

// LoadAndInstantiate is Load followed by Instantiate.
func (m *Manager) LoadAndInstantiate(key string) (Plugin, error) {
	if state, err := m.Load(key); !state.Is(Loaded | Static) {
		return nil, err
	}
	return m.Instantiate(key)
}

// dropInstance is called from AbstractPlugin.Close.
func (m *Manager) dropInstance(token uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.instances[token]; !ok {
		return nil
	}
	delete(m.instances, token)
	if rec, ok := m.reg.records[name]; ok && rec.instances > 0 {
		rec.instances--
	}
	m.metrics.observeInstanceDrop()
	return nil
}

// SetPluginDirectory switches the manager to a different plugin directory
// and rescans. Loaded plugins keep their records; dormant records of
// plugins the new directory does not provide are dropped.
func (m *Manager) SetPluginDirectory(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = dir
	return m.reloadLocked()
}

// ReloadPluginDirectory rescans the current plugin directory, picking up
// added and removed descriptors. The alias table is rebuilt from scratch,
// discarding preferences set through SetPreferredPlugins.
func (m *Manager) ReloadPluginDirectory() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloadLocked()
}

type scannedPlugin struct {
	name     string
	metadata *Metadata
	err      error
}

// reloadLocked scans m.dir for descriptors and reconciles the registry with
// the result. Caller holds the lock.
func (m *Manager) reloadLocked() error {
	scanned, err := m.scanDirectory()
	if err != nil {
		return err
	}
	found := make(map[string]*scannedPlugin, len(scanned))
	for _, sp := range scanned {
		found[sp.name] = sp
	}

	// Dormant dynamic records the directory no longer provides go away.
	// Loaded, static and transient records always survive a rescan, but a
	// transient record drops its stashed dormant record when the descriptor
	// behind it is gone.
	for _, name := range m.reg.pluginNames() {
		rec := m.reg.records[name]
		if rec.transient {
			if _, ok := found[name]; !ok {
				rec.shadowed = nil
			}
			continue
		}
		if rec.metadata.Origin() != OriginDynamic || rec.state != NotLoaded {
			continue
		}
		if _, ok := found[name]; !ok {
			m.reg.remove(name)
			m.log.Debugf("plugins: dropped %s, descriptor gone", name)
		}
	}

	// Filename order from the scan decides registration order, and with it
	// alias precedence.
	for _, sp := range scanned {
		if existing, ok := m.reg.records[sp.name]; ok {
			if existing.transient {
				if existing.shadowed != nil {
					existing.shadowed.metadata = sp.metadata
				} else {
					existing.shadowed = &record{
						name:     sp.name,
						metadata: sp.metadata,
						state:    NotLoaded,
					}
				}
			} else if existing.state == NotLoaded {
				existing.metadata = sp.metadata
			}
			continue
		}
		m.reg.add(&record{
			name:     sp.name,
			metadata: sp.metadata,
			state:    NotLoaded,
		})
		m.log.Debugf("plugins: discovered %s", sp.name)
	}

	m.reg.rebuildAliases()
	return nil
}

// scanDirectory parses all descriptors in m.dir, a few in parallel, and
// returns those declaring the manager's interface in filename order. A
// missing directory is the same as an empty one.
func (m *Manager) scanDirectory() ([]*scannedPlugin, error) {
	if m.dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			m.log.Debugf("plugins: plugin directory %s does not exist", m.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan plugin directory %s: %w", m.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), m.metadataSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), m.metadataSuffix))
	}

	results := make([]scannedPlugin, len(names))
	var g errgroup.Group
	g.SetLimit(scanParallelism)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = m.parseDescriptor(name)
			return nil
		})
	}
	g.Wait()

	var found []*scannedPlugin
	for i := range results {
		sp := &results[i]
		switch {
		case sp.err != nil:
			m.log.Warnf("plugins: skipping %s: %v", sp.name, sp.err)
		case sp.metadata.Interface() != m.iface:
			m.log.Debugf("plugins: skipping %s, interface %s does not match %s",
				sp.name, sp.metadata.Interface(), m.iface)
		default:
			found = append(found, sp)
		}
	}
	return found, nil
}

func (m *Manager) parseDescriptor(name string) scannedPlugin {
	c, err := conf.Load(filepath.Join(m.dir, name+m.metadataSuffix))
	if err != nil {
		return scannedPlugin{name: name, err: err}
	}
	md, err := metadataFromConfiguration(name, c, OriginDynamic)
	if err != nil {
		return scannedPlugin{name: name, err: err}
	}
	return scannedPlugin{name: name, metadata: md}
}

// WatchPluginDirectory rescans the plugin directory whenever a descriptor
// in it changes, until ctx is cancelled. SetPluginDirectory after the watch
// started does not move the watch.
func (m *Manager) WatchPluginDirectory(ctx context.Context) error {
	m.mu.RLock()
	dir := m.dir
	suffix := m.metadataSuffix
	m.mu.RUnlock()
	if dir == "" {
		return errors.New("plugins: no plugin directory to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create directory watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, suffix) {
					continue
				}
				if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
					!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				if err := m.ReloadPluginDirectory(); err != nil {
					m.log.Warnf("plugins: rescan after %s failed: %v", ev.Name, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.log.Warnf("plugins: directory watcher: %v", err)
			}
		}
	}()
	return nil
}

// SetPreferredPlugins points an alias at the first of the given candidates
// that is registered and actually provides the alias. With no usable
// candidate the alias keeps its current target. The preference lasts until
// the next directory rescan.
func (m *Manager) SetPreferredPlugins(alias string, candidates []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reg.aliases[alias]; !ok {
		return fmt.Errorf("plugins: unknown alias %q", alias)
	}
	for _, candidate := range candidates {
		rec, ok := m.reg.records[candidate]
		if !ok || !rec.metadata.providesAlias(alias) {
			continue
		}
		m.reg.aliases[alias] = candidate
		return nil
	}
	return nil
}

// RegisterExternalManager makes other's plugins available as dependency
// targets. Lookup order follows registration order. The dependency
// relationship between managers must stay acyclic.
func (m *Manager) RegisterExternalManager(other *Manager) {
	if other == nil || other == m {
		panic("plugins: RegisterExternalManager needs a different manager")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.external = append(m.external, other)
}

// findExternal returns the first registered external manager that knows the
// given plugin. Caller holds m's lock; the candidate's own lock is taken
// briefly.
func (m *Manager) findExternal(dep string) *Manager {
	for _, ext := range m.external {
		if ext.knows(dep) {
			return ext
		}
	}
	return nil
}

func (m *Manager) knows(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reg.resolve(key) != nil
}

// addDependent records that a plugin of another manager depends on the
// given local plugin.
func (m *Manager) addDependent(plugin, by string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec := m.reg.resolve(plugin); rec != nil {
		rec.addUsedBy(by)
	}
}

func (m *Manager) removeDependent(plugin, by string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec := m.reg.resolve(plugin); rec != nil {
		rec.removeUsedBy(by)
	}
}

// Close unloads every loaded plugin in reverse dependency order and marks
// the manager unusable. It fails without unloading anything while live
// instances exist. Close errors of individual plugins are collected; the
// teardown continues past them.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	if n := len(m.instances); n > 0 {
		return fmt.Errorf("plugins: cannot close manager: %w (%d live)", ErrUsed, n)
	}

	var errs []error
	for {
		progressed := false
		for _, name := range m.reg.pluginNames() {
			rec, ok := m.reg.records[name]
			if !ok || rec.state != Loaded || len(rec.usedBy) > 0 {
				continue
			}
			if _, err := m.unloadRecord(rec); err != nil {
				errs = append(errs, err)
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}

	for _, name := range m.reg.pluginNames() {
		if rec := m.reg.records[name]; rec.state == Loaded {
			errs = append(errs, &LoadError{
				Plugin:     rec.name,
				State:      Required,
				Dependency: rec.usedBy[0],
				Err:        ErrRequired,
			})
		}
	}

	m.closed = true
	return errors.Join(errs...)
}
