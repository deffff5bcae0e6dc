package e2e

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// PlanExtensions are the document formats a meal plan can be imported from.
var PlanExtensions = []string{".txt", ".md", ".docx", ".odt", ".xlsx", ".pdf"}

// WeekPlanLines is a seven-day plan, one line per label. It avoids accents so the
// PDF fixture round-trips through the core fonts unchanged.
func WeekPlanLines() []string {
	breakfasts := []string{"Avena con banana", "Yogur con granola", "Tostadas con tomate", "Batido de frutas", "Huevos revueltos", "Pan integral con queso", "Panqueques de avena"}
	lunches := []string{"Pollo con arroz", "Lentejas guisadas", "Pasta con verduras", "Ensalada de quinoa", "Pescado al horno", "Garbanzos con espinaca", "Carne con papas"}
	dinners := []string{"Sopa de verduras", "Tortilla de papas", "Salmon con brocoli", "Crema de calabaza", "Wrap de pavo", "Revuelto de setas", "Ensalada caprese"}
	var lines []string
	for i := 0; i < 7; i++ {
		lines = append(lines,
			fmt.Sprintf("Dia %d", i+1),
			"Desayuno: "+breakfasts[i],
			"Almuerzo: "+lunches[i],
			"Cena: "+dinners[i],
		)
	}
	return append(lines, "Nota: Beber dos litros de agua al dia")
}

// PlanDocument encodes lines as a document of the given extension, one paragraph,
// row or text line per entry.
func PlanDocument(ext string, lines []string) ([]byte, error) {
	switch ext {
	case ".txt", ".md":
		var buf bytes.Buffer
		for _, l := range lines {
			buf.WriteString(l + "\r\n")
		}
		return buf.Bytes(), nil
	case ".docx":
		var body bytes.Buffer
		for _, l := range lines {
			body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + html.EscapeString(l) + `</w:t></w:r></w:p>`)
		}
		return zipFiles(map[string]string{
			"[Content_Types].xml": `<Types><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
			"word/document.xml":   `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`,
		})
	case ".odt":
		var body bytes.Buffer
		for _, l := range lines {
			body.WriteString(`<text:p>` + html.EscapeString(l) + `</text:p>`)
		}
		return zipFiles(map[string]string{
			"content.xml": `<office:document-content><office:body><office:text>` + body.String() + `</office:text></office:body></office:document-content>`,
		})
	case ".xlsx":
		f := excelize.NewFile()
		defer f.Close()
		for i, l := range lines {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetCellValue("Sheet1", cell, l); err != nil {
				return nil, err
			}
		}
		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".pdf":
		doc := fpdf.New("P", "pt", "Letter", "")
		doc.SetFont("Helvetica", "", 11)
		doc.AddPage()
		y := 60.0
		for _, l := range lines {
			if y > 740 {
				doc.AddPage()
				y = 60
			}
			// The trailing space keeps words apart when a reader joins text runs.
			doc.Text(54, y, l+" ")
			y += 16
		}
		var buf bytes.Buffer
		if err := doc.Output(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("no fixture for %q", ext)
}

func zipFiles(files map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
