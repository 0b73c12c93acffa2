package plugins

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strutworks/strut/pkg/conf"
)

func parseMetadata(t *testing.T, name, descriptor string, origin Origin) (*Metadata, error) {
	t.Helper()
	c, err := conf.Parse(strings.NewReader(descriptor))
	require.NoError(t, err)
	return metadataFromConfiguration(name, c, origin)
}

func TestMetadataFromConfiguration(t *testing.T) {
	md, err := parseMetadata(t, "Blur", `
interface=cz.example.AbstractFilter/1.0
depends=Kernel
depends=Color
provides=GaussianBlur

[configuration]
radius=5
`, OriginDynamic)
	require.NoError(t, err)

	assert.Equal(t, "Blur", md.Name())
	assert.Equal(t, "cz.example.AbstractFilter/1.0", md.Interface())
	assert.Equal(t, []string{"Kernel", "Color"}, md.Depends())
	assert.Equal(t, []string{"GaussianBlur"}, md.Provides())
	assert.Equal(t, OriginDynamic, md.Origin())
	assert.Equal(t, "5", md.Configuration().Value("radius"))
}

func TestMetadataRequiresInterface(t *testing.T) {
	_, err := parseMetadata(t, "Blur", "provides=GaussianBlur\n", OriginDynamic)
	assert.Error(t, err)

	// Static plugins carry the interface in their list node instead.
	md, err := parseMetadata(t, "Canary", "provides=Bird\n", OriginStatic)
	require.NoError(t, err)
	assert.Empty(t, md.Interface())
}

func TestMetadataConfigurationIsDetached(t *testing.T) {
	md, err := parseMetadata(t, "Blur", `
interface=cz.example.AbstractFilter/1.0

[configuration]
radius=5
`, OriginDynamic)
	require.NoError(t, err)

	md.Configuration().SetValue("radius", "9")
	assert.Equal(t, "9", md.Configuration().Value("radius"))
	assert.Equal(t, "5", md.InitialConfiguration().Value("radius"))
}
