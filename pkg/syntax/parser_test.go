package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerSource = `using UnityEngine;

namespace Game.Player
{
    [RequireComponent(typeof(Rigidbody))]
    public class PlayerController : MonoBehaviour, IDamageable
    {
        public float speed = 5f;

        void Update()
        {
            var rb = GetComponent<Rigidbody>();
        }
    }
}
`

func TestParseClass(t *testing.T) {
	tree, err := Parse([]byte(playerSource))
	require.NoError(t, err)
	require.NotNil(t, tree.Root())

	assert.Equal(t, "compilation_unit", tree.Root().Kind())
	assert.False(t, tree.HasErrors())
	assert.Empty(t, tree.Errors())
	assert.Greater(t, tree.NodeCount(), 10)

	classes := tree.Root().FindAll("class_declaration")
	require.Len(t, classes, 1)

	class := classes[0]
	assert.Equal(t, "PlayerController", class.Field("name").Text())
	assert.Equal(t, 5, class.StartLine(), "attribute lists belong to the declaration")
	assert.Equal(t, 14, class.EndLine())
	assert.NotNil(t, class.ChildOfKind("base_list"))
	assert.Same(t, class, class.Field("name").Parent())

	method := class.FindFirst("method_declaration")
	require.NotNil(t, method)
	assert.Equal(t, "Update", method.Field("name").Text())
}

func TestNodeTextMatchesSpan(t *testing.T) {
	tree, err := Parse([]byte(playerSource))
	require.NoError(t, err)

	for _, n := range tree.Root().FindAll("identifier") {
		assert.Equal(t, playerSource[n.StartByte():n.EndByte()], n.Text())
	}
}

func TestParseMalformedInputStillYieldsTree(t *testing.T) {
	tree, err := Parse([]byte("public class Broken : MonoBehaviour { void Update( { }"))
	require.NoError(t, err)

	assert.True(t, tree.HasErrors())
	errs := tree.Errors()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].String(), "Parse error at line 1")
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := Parse([]byte{0xff, 0xfe, 0x00, 'c', 'l', 'a', 's', 's'})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParseFailure))
}

func TestParseAfterClose(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	p.Close()

	_, err = p.Parse([]byte("class A {}"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestTreeOutlivesParser(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	tree, err := p.Parse([]byte("class A { int x; }"))
	require.NoError(t, err)
	p.Close()

	class := tree.Root().FindFirst("class_declaration")
	assert.Equal(t, "A", class.Field("name").Text())
}

func TestParserReuse(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		tree, err := p.Parse([]byte("class " + name + " {}"))
		require.NoError(t, err)
		assert.Equal(t, name, tree.Root().FindFirst("class_declaration").Field("name").Text())
	}
}

func TestNilNodeIsAbsent(t *testing.T) {
	var n *Node

	assert.Equal(t, "", n.Kind())
	assert.Equal(t, "", n.Text())
	assert.Equal(t, 0, n.StartLine())
	assert.Equal(t, 0, n.ChildCount())
	assert.Nil(t, n.Child(0))
	assert.Nil(t, n.Field("name"))
	assert.Nil(t, n.ChildOfKind("identifier"))
	assert.Nil(t, n.FindFirst("identifier"))
	assert.Empty(t, n.FindAll("identifier"))
	assert.False(t, n.IsError())
	assert.Equal(t, "<nil>", n.String())
}

func TestMissingFieldIsNil(t *testing.T) {
	tree, err := Parse([]byte("class A {}"))
	require.NoError(t, err)

	class := tree.Root().FindFirst("class_declaration")
	assert.Nil(t, class.Field("returns"))
	assert.Nil(t, class.ChildOfKind("base_list"))
	assert.Nil(t, class.Child(1000))
}

func TestSyntaxErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  SyntaxError
		want string
	}{
		{
			name: "single point",
			err:  SyntaxError{StartLine: 3, StartColumn: 4, EndLine: 3, EndColumn: 4},
			want: "Parse error at line 3, column 4",
		},
		{
			name: "range",
			err:  SyntaxError{StartLine: 1, StartColumn: 2, EndLine: 5, EndColumn: 1},
			want: "Parse error at line 1, column 2 to line 5, column 1",
		},
		{
			name: "missing",
			err:  SyntaxError{StartLine: 2, StartColumn: 1, EndLine: 2, EndColumn: 1, Missing: true},
			want: "Parse error at line 2, column 1 (missing token)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.String())
		})
	}
}
