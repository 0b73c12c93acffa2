package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strutworks/strut/pkg/resource"
)

const canaryInterface = "cz.example.AbstractBird/1.0"

func importCanary(t *testing.T, name string, inits, fins *int) *StaticPlugin {
	t.Helper()
	node := &StaticPlugin{}
	err := ImportStatic(node, Version, name, canaryInterface,
		func(*Manager, string) (Plugin, error) { return &testPlugin{}, nil },
		func() { *inits++ },
		func() { *fins++ })
	require.NoError(t, err)
	t.Cleanup(func() { RemoveStatic(node) })
	return node
}

func TestImportStaticIdempotent(t *testing.T) {
	var inits, fins int
	node := importCanary(t, "Canary", &inits, &fins)
	assert.Equal(t, 1, inits)

	// A second import of the same node is a no-op, the initializer does not
	// run again.
	require.NoError(t, ImportStatic(node, Version, "Canary", canaryInterface,
		node.Instancer, node.Initializer, node.Finalizer))
	assert.Equal(t, 1, inits)

	RemoveStatic(node)
	assert.Equal(t, 1, fins)
	RemoveStatic(node)
	assert.Equal(t, 1, fins)
}

func TestImportStaticVersionMismatch(t *testing.T) {
	node := &StaticPlugin{}
	err := ImportStatic(node, Version+1, "Canary", canaryInterface,
		func(*Manager, string) (Plugin, error) { return &testPlugin{}, nil }, nil, nil)
	assert.Error(t, err)
	assert.Empty(t, staticPluginsFor(canaryInterface))
}

func TestManagerRegistersStaticPlugins(t *testing.T) {
	var inits, fins int
	importCanary(t, "Canary", &inits, &fins)

	m, err := NewManager(canaryInterface, Options{Logger: quietLogger()})
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, []string{"Canary"}, m.PluginList())
	assert.Equal(t, Static, m.LoadState("Canary"))

	// Loading and unloading a static plugin are no-ops reporting Static.
	state, err := m.Load("Canary")
	require.NoError(t, err)
	assert.Equal(t, Static, state)
	state, err = m.Unload("Canary")
	require.NoError(t, err)
	assert.Equal(t, Static, state)

	bird, err := m.Instantiate("Canary")
	require.NoError(t, err)
	assert.Equal(t, "Canary", bird.Name())
	assert.Equal(t, OriginStatic, bird.Metadata().Origin())
	require.NoError(t, bird.Close())

	// Managers neither initialize nor finalize static plugins; that happens
	// at import and removal.
	assert.Equal(t, 1, inits)
	assert.Equal(t, 0, fins)
}

func TestStaticPluginEmbeddedMetadata(t *testing.T) {
	var inits, fins int
	importCanary(t, "Canary", &inits, &fins)

	group, err := resource.Compile("plugins", []resource.Entry{{
		Name: "Canary.conf",
		Data: []byte("provides=Bird\n\n[configuration]\nsong=loud\n"),
	}})
	require.NoError(t, err)
	resource.Register(group)
	defer resource.Unregister(group)

	m, err := NewManager(canaryInterface, Options{Logger: quietLogger()})
	require.NoError(t, err)
	defer m.Close()

	md := m.Metadata("Bird")
	require.NotNil(t, md)
	assert.Equal(t, "Canary", md.Name())
	assert.Equal(t, canaryInterface, md.Interface())
	assert.Equal(t, "loud", md.Configuration().Value("song"))
}
