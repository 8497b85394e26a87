// Package export renders aggregated shopping lists as downloadable documents.
package export

import (
	"fmt"
	"io"

	"github.com/foodgram/foodgram/backend/internal/types"
)

// Renderer writes a shopping list document.
type Renderer interface {
	ContentType() string
	Filename() string
	Render(w io.Writer, items []types.ShoppingItem) error
}

// FormatLine formats the n-th item (counted from 1) of a shopping list.
func FormatLine(n int, item types.ShoppingItem) string {
	return fmt.Sprintf("%d. %s, %d %s.", n, item.Name, item.TotalAmount, item.MeasurementUnit)
}

// TextRenderer writes one line per item.
type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextRenderer) Filename() string { return "shopping_cart.txt" }

func (TextRenderer) Render(w io.Writer, items []types.ShoppingItem) error {
	for i, item := range items {
		if _, err := fmt.Fprintln(w, FormatLine(i+1, item)); err != nil {
			return err
		}
	}
	return nil
}
