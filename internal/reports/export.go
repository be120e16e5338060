package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatHTML = ""
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// WriteCSV writes the table with a header row and the footer, if any.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		if err := writer.Write(t.Footer); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the table to a single-sheet workbook. Numeric columns become number cells.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Sheet1"
	if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := writeXLSXRow(f, sheet, 3, t.Headers, nil); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 3, 3, bold); err != nil {
		return err
	}
	next := 4
	for _, row := range t.Rows {
		if err := writeXLSXRow(f, sheet, next, row, t.Numeric); err != nil {
			return err
		}
		next++
	}
	if len(t.Footer) > 0 {
		if err := writeXLSXRow(f, sheet, next, t.Footer, t.Numeric); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, next, next, bold); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeXLSXRow(f *excelize.File, sheet string, rowNum int, values []string, numeric []bool) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
		if i < len(numeric) && numeric[i] && v != "" {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				cells[i] = n
			}
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// HTMLRenderer renders a named template to a writer.
type HTMLRenderer interface {
	RenderTo(w io.Writer, name string, data any) error
}

// PDFConverter converts an HTML document to PDF.
type PDFConverter interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter renders a table through the export template and a PDF converter.
type PDFExporter struct {
	Templates HTMLRenderer
	Converter PDFConverter
}

// ExportTemplate is the template used for PDF documents.
const ExportTemplate = "exports/table.html"

// Render returns the PDF bytes for t.
func (p *PDFExporter) Render(ctx context.Context, t Table) ([]byte, error) {
	if p == nil || p.Templates == nil || p.Converter == nil {
		return nil, fmt.Errorf("reports: pdf exporter not configured")
	}
	var buf bytes.Buffer
	if err := p.Templates.RenderTo(&buf, ExportTemplate, t); err != nil {
		return nil, fmt.Errorf("reports: render export html: %w", err)
	}
	return p.Converter.RenderHTML(ctx, buf.String())
}
