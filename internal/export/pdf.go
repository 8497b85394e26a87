package export

import (
	"fmt"
	"io"

	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/go-pdf/fpdf"
)

// Page geometry in points on a Letter page, measured from the top-left
// corner of a 1cm margin.
const (
	margin     = 28.35
	titleX     = 200
	titleY     = 5
	lineX      = 10
	firstLineY = 20
	lineStep   = 20
	pageBottom = 780

	titleSize = 22
	lineSize  = 16
	title     = "Shopping list:"
)

type position struct {
	page int
	y    float64
}

// layoutLines places n lines top to bottom, starting a new page when the
// cursor reaches the bottom.
func layoutLines(n int) []position {
	out := make([]position, 0, n)
	page, y := 0, float64(firstLineY)
	for i := 0; i < n; i++ {
		out = append(out, position{page: page, y: y})
		y += lineStep
		if y >= pageBottom {
			page++
			y = firstLineY
		}
	}
	return out
}

// PDFRenderer lays the shopping list out on Letter pages. FontPath, when
// set, points to a UTF-8 TrueType font used instead of core Helvetica.
type PDFRenderer struct {
	FontPath string
}

func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Filename() string { return "shopping_cart.pdf" }

func (r PDFRenderer) Render(w io.Writer, items []types.ShoppingItem) error {
	if err := r.build(items).Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func (r PDFRenderer) build(items []types.ShoppingItem) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Shopping list", true)

	family := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if r.FontPath != "" {
		family = "ListFont"
		pdf.AddUTF8Font(family, "", r.FontPath)
		translate = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.SetFont(family, "", titleSize)
	pdf.Text(margin+titleX, margin+titleY, translate(title))
	pdf.SetFont(family, "", lineSize)

	current := 0
	for i, pos := range layoutLines(len(items)) {
		if pos.page != current {
			pdf.AddPage()
			pdf.SetFont(family, "", lineSize)
			current = pos.page
		}
		pdf.Text(margin+lineX, margin+pos.y, translate(FormatLine(i+1, items[i])))
	}
	return pdf
}
