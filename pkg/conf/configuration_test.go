package conf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	input := `
# a comment
; another comment
interface=cz.example.Foo/1.0
depends=bar
depends=baz

[configuration]
speed=fast
`
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	root := c.Root()
	assert.Equal(t, "cz.example.Foo/1.0", root.Value("interface"))
	assert.Equal(t, []string{"bar", "baz"}, root.Values("depends"))

	cfg := root.Group("configuration")
	require.NotNil(t, cfg)
	assert.Equal(t, "fast", cfg.Value("speed"))
}

func TestParse_NestedGroups(t *testing.T) {
	input := `
[a]
x=1
[a/b]
y=2
[a/b/c]
z=3
`
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	a := c.Root().Group("a")
	require.NotNil(t, a)
	assert.Equal(t, "1", a.Value("x"))

	b := a.Group("b")
	require.NotNil(t, b)
	assert.Equal(t, "2", b.Value("y"))

	cc := b.Group("c")
	require.NotNil(t, cc)
	assert.Equal(t, "3", cc.Value("z"))
}

func TestParse_RepeatedGroups(t *testing.T) {
	input := `
[file]
name=first
[file]
name=second
`
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	files := c.Root().Groups("file")
	require.Len(t, files, 2)
	assert.Equal(t, "first", files[0].Value("name"))
	assert.Equal(t, "second", files[1].Value("name"))
}

func TestParse_QuotedValue(t *testing.T) {
	input := `key="  padded value  "`
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "  padded value  ", c.Root().Value("key"))
}

func TestParse_MultilineValue(t *testing.T) {
	input := "key=\"\"\"\nline one\nline two\n\"\"\"\nafter=yes\n"
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", c.Root().Value("key"))
	assert.Equal(t, "yes", c.Root().Value("after"))
}

func TestParse_BOM(t *testing.T) {
	input := "\ufeffkey=value\n"
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "value", c.Root().Value("key"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{
			name:  "missing equals",
			input: "not a key value line\n",
			want:  ErrMissingEquals,
		},
		{
			name:  "empty group header",
			input: "[]\n",
			want:  ErrEmptyGroupHeader,
		},
		{
			name:  "empty path component",
			input: "[a//b]\n",
			want:  ErrEmptyGroupHeader,
		},
		{
			name:  "missing closing bracket",
			input: "[group\n",
			want:  ErrMissingBracket,
		},
		{
			name:  "unterminated quoted value",
			input: "key=\"no end\n",
			want:  ErrUnterminatedValue,
		},
		{
			name:  "unclosed multiline",
			input: "key=\"\"\"\nnever closed\n",
			want:  ErrUnclosedMultiline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	input := `interface=cz.example.Foo/1.0
depends=bar
depends=baz
[configuration]
speed=fast
padded="  yes  "
multi="""
one
two
"""
[configuration/nested]
deep=value
`
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	again, err := Parse(&buf)
	require.NoError(t, err)

	assert.Equal(t, "cz.example.Foo/1.0", again.Root().Value("interface"))
	assert.Equal(t, []string{"bar", "baz"}, again.Root().Values("depends"))

	cfg := again.Root().Group("configuration")
	require.NotNil(t, cfg)
	assert.Equal(t, "fast", cfg.Value("speed"))
	assert.Equal(t, "  yes  ", cfg.Value("padded"))
	assert.Equal(t, "one\ntwo", cfg.Value("multi"))

	nested := cfg.Group("nested")
	require.NotNil(t, nested)
	assert.Equal(t, "value", nested.Value("deep"))
}

func TestGroup_Mutation(t *testing.T) {
	g := NewGroup("root")
	g.AddValue("k", "a")
	g.AddValue("k", "b")
	assert.Equal(t, []string{"a", "b"}, g.Values("k"))

	g.SetValue("k", "c")
	assert.Equal(t, []string{"c", "b"}, g.Values("k"))

	g.RemoveValues("k")
	assert.False(t, g.Has("k"))

	child := g.AddGroup("child")
	child.AddValue("x", "1")
	assert.Equal(t, []string{"child"}, g.GroupNames())

	clone := g.Clone()
	clone.Group("child").SetValue("x", "2")
	assert.Equal(t, "1", g.Group("child").Value("x"))
	assert.Equal(t, "2", clone.Group("child").Value("x"))
}

func TestGroup_KeyNames(t *testing.T) {
	g := NewGroup("")
	g.AddValue("b", "1")
	g.AddValue("a", "2")
	g.AddValue("b", "3")
	assert.Equal(t, []string{"b", "a"}, g.KeyNames())
}
