package export

import (
	"bytes"
	"testing"

	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems(n int) []types.ShoppingItem {
	items := make([]types.ShoppingItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, types.ShoppingItem{Name: "salt", MeasurementUnit: "g", TotalAmount: int64(i + 1)})
	}
	return items
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(1, types.ShoppingItem{Name: "salt", MeasurementUnit: "g", TotalAmount: 22})
	assert.Equal(t, "1. salt, 22 g.", line)
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := TextRenderer{}.Render(&buf, []types.ShoppingItem{
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 500},
		{Name: "milk", MeasurementUnit: "ml", TotalAmount: 250},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. flour, 500 g.\n2. milk, 250 ml.\n", buf.String())
}

func TestTextRendererEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextRenderer{}.Render(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestLayoutLines(t *testing.T) {
	positions := layoutLines(80)
	require.Len(t, positions, 80)

	assert.Equal(t, position{page: 0, y: firstLineY}, positions[0])
	assert.Equal(t, position{page: 0, y: 760}, positions[37])
	assert.Equal(t, position{page: 1, y: firstLineY}, positions[38])
	assert.Equal(t, position{page: 2, y: firstLineY}, positions[76])

	assert.Empty(t, layoutLines(0))
}

func TestPDFRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := PDFRenderer{}
	require.NoError(t, r.Render(&buf, sampleItems(50)))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 2, r.build(sampleItems(50)).PageCount())
	assert.Equal(t, 1, r.build(sampleItems(38)).PageCount())
	assert.Equal(t, "application/pdf", r.ContentType())
	assert.Equal(t, "shopping_cart.pdf", r.Filename())
}

func TestPDFRendererEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDFRenderer{}.Render(&buf, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFRendererMissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := PDFRenderer{FontPath: "/nonexistent/font.ttf"}.Render(&buf, sampleItems(1))
	assert.Error(t, err)
}
