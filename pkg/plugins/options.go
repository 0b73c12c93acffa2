package plugins

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/strutworks/strut/pkg/dylib"
)

// Options parameterize a Manager.
type Options struct {
	// PluginDirectory is the search path for descriptors and libraries.
	// Empty means no dynamic plugins; static plugins still work.
	PluginDirectory string `yaml:"plugin_directory"`
	// LibraryPrefix is prepended to a plugin identifier when deriving its
	// library filename. Usually empty.
	LibraryPrefix string `yaml:"library_prefix"`
	// LibrarySuffix is the dynamic library filename suffix. Defaults to the
	// platform suffix.
	LibrarySuffix string `yaml:"library_suffix"`
	// MetadataSuffix is the descriptor filename suffix. Defaults to ".conf".
	MetadataSuffix string `yaml:"metadata_suffix"`

	// Logger receives discovery and lifecycle diagnostics. Defaults to a
	// fresh logrus logger.
	Logger *logrus.Logger `yaml:"-"`
	// Loader opens dynamic libraries. Defaults to the platform loader.
	Loader dylib.Loader `yaml:"-"`
	// Metrics, when set, receives load/unload/instance observations.
	Metrics *Metrics `yaml:"-"`
}

// DefaultOptions returns options with the platform defaults filled in.
func DefaultOptions() Options {
	return Options{
		LibrarySuffix:  dylib.Suffix(),
		MetadataSuffix: ".conf",
	}
}

// OptionsFromFile reads options from a YAML file, filling unset fields with
// defaults.
func OptionsFromFile(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	opts.applyDefaults()
	return opts, nil
}

func (o *Options) applyDefaults() {
	if o.LibrarySuffix == "" {
		o.LibrarySuffix = dylib.Suffix()
	}
	if o.MetadataSuffix == "" {
		o.MetadataSuffix = ".conf"
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
	if o.Loader == nil {
		o.Loader = dylib.NewLoader()
	}
}
