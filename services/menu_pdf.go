package services

import (
	"fmt"
	"io"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/go-pdf/fpdf"
)

// RenderMenuPDF writes a printable A4 card of the menu and its dishes.
func RenderMenuPDF(w io.Writer, menu *models.Menu) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(menu.Name), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr(menu.Name), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 11)
	pdf.MultiCell(0, 6, tr(menu.Description), "", "C", false)
	pdf.Ln(6)

	if len(menu.Dishes) == 0 {
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, "No dishes yet.", "", 1, "C", false, 0, "")
	}

	for _, dish := range menu.Dishes {
		name := dish.Name
		if dish.IsVegetarian {
			name += " (V)"
		}

		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(150, 8, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, utils.FormatPrice(dish.Price), "", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(dish.Description), "", "L", false)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Ready in %d min", dish.TimeToPrepare), "", 1, "L", false, 0, "")
		pdf.Ln(3)
	}

	return pdf.Output(w)
}
