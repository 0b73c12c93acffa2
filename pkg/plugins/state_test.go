package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadStateIs(t *testing.T) {
	assert.True(t, Loaded.Is(Loaded|Static))
	assert.True(t, Static.Is(Loaded|Static))
	assert.False(t, NotLoaded.Is(Loaded|Static))
	assert.False(t, LoadState(0).Is(Loaded|Static))
}

func TestLoadStateString(t *testing.T) {
	cases := []struct {
		state LoadState
		want  string
	}{
		{NotFound, "NotFound"},
		{Static, "Static"},
		{Loaded, "Loaded"},
		{UnloadFailed, "UnloadFailed"},
		{Loaded | Static, "Static|Loaded"},
		{LoadState(0), "LoadState(0)"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.state.String())
	}
}
