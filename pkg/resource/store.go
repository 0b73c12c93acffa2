package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/strutworks/strut/pkg/conf"
)

var (
	// ErrGroupNotFound is returned by NewStore for a group that is neither
	// compiled in nor overridden.
	ErrGroupNotFound = errors.New("resource group not found")
	// ErrResourceNotFound is returned by Get for an unknown filename.
	ErrResourceNotFound = errors.New("resource not found")
)

// overrides maps group name to a resource configuration file on disk.
// Mutated only through OverrideGroup/ClearOverride, which must be externally
// serialized.
var overrides = make(map[string]string)

// overrideGen increments on every override change; cached override bytes are
// keyed by it so a change invalidates them.
var overrideGen atomic.Uint64

// OverrideGroup installs a development-time override for one group. Lookups
// in the group consult the configuration file first, re-parsing it on every
// call, and fall back to the compiled-in data.
func OverrideGroup(name, confPath string) {
	overrides[name] = confPath
	overrideGen.Add(1)
}

// ClearOverride removes the override for one group, if any.
func ClearOverride(name string) {
	delete(overrides, name)
	overrideGen.Add(1)
}

// overrideCacheSize bounds the per-store cache of override bytes.
const overrideCacheSize = 64

// Store is a read view of one resource group.
type Store struct {
	name  string
	group *GroupData
	log   *logrus.Logger
	cache *lru.LRU[string, []byte]
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for override diagnostics.
func WithLogger(log *logrus.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore opens a read view of the named group. The group must be compiled
// in or have an override installed.
func NewStore(name string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		name:  name,
		group: findGroup(name),
		cache: lru.NewLRU[string, []byte](overrideCacheSize, nil, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.New()
	}

	if s.group == nil {
		if _, ok := overrides[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
		}
	}
	return s, nil
}

// Name returns the group name.
func (s *Store) Name() string {
	return s.name
}

// Has reports whether the compiled-in group contains filename. Override-only
// files are not reported so enumeration stays fixed.
func (s *Store) Has(filename string) bool {
	return s.group != nil && s.group.find(filename) >= 0
}

// List returns the compiled-in filenames in table order. Files supplied only
// by an override are intentionally not listed.
func (s *Store) List() []string {
	if s.group == nil {
		return nil
	}
	return s.group.filenames()
}

// Get returns the bytes of filename. Compiled-in entries are returned as
// non-owning views into the compiled data; override entries are cached in
// the store until the next override change.
func (s *Store) Get(filename string) ([]byte, error) {
	if confPath, ok := overrides[s.name]; ok {
		data, found, err := s.overrideGet(confPath, filename)
		if err != nil {
			s.log.Warnf("resource: override for group '%s' failed, falling back to compiled-in data: %v", s.name, err)
		} else if found {
			return data, nil
		}
	}

	if s.group != nil {
		if i := s.group.find(filename); i >= 0 {
			return s.group.data(i), nil
		}
	}
	return nil, fmt.Errorf("%w: '%s' in group '%s'", ErrResourceNotFound, filename, s.name)
}

// overrideGet resolves filename through the override configuration. The
// configuration is re-parsed on every call so edits apply live. A missing
// entry is not an error; the caller falls back silently.
func (s *Store) overrideGet(confPath, filename string) ([]byte, bool, error) {
	c, err := conf.Load(confPath)
	if err != nil {
		return nil, false, err
	}

	if group := c.Root().Value("group"); group != "" && group != s.name {
		return nil, false, fmt.Errorf("override file names group '%s', not '%s'", group, s.name)
	}

	for _, file := range c.Root().Groups("file") {
		source := file.Value("filename")
		if source == "" {
			continue
		}
		alias := file.Value("alias")
		if alias == "" {
			alias = filepath.Base(filepath.FromSlash(source))
		}
		if alias != filename {
			continue
		}

		key := fmt.Sprintf("%d\x00%s", overrideGen.Load(), filename)
		if data, ok := s.cache.Get(key); ok {
			return data, true, nil
		}

		full := filepath.Join(filepath.Dir(confPath), filepath.FromSlash(source))
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, false, err
		}
		s.cache.Add(key, data)
		return data, true, nil
	}

	return nil, false, nil
}
