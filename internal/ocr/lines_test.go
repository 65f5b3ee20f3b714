package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/screenlens/internal/geometry"
)

func TestBuildLines_GroupsByIndexAscending(t *testing.T) {
	words := []Word{
		{Text: "world", BBox: geometry.NewBox(60, 12, 40, 10), LineIndex: 2},
		{Text: "Hello", BBox: geometry.NewBox(10, 10, 45, 12), LineIndex: 2},
		{Text: "First", BBox: geometry.NewBox(10, 0, 30, 8), LineIndex: 1},
	}

	lines := BuildLines(words)
	require.Len(t, lines, 2)

	assert.Equal(t, "First", lines[0].Text)
	assert.Equal(t, "world Hello", lines[1].Text)
	assert.Equal(t, geometry.Box{X: 10, Y: 10, W: 90, H: 12}, lines[1].BBox)
}

func TestBuildLines_Empty(t *testing.T) {
	assert.Empty(t, BuildLines(nil))
}

func TestStatic_Recognize(t *testing.T) {
	res, err := Static{}.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Lines)

	fixed := NewResult([]Word{{Text: "abc", LineIndex: 0}})
	res, err = Static{Result: fixed}.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Same(t, fixed, res)
}
