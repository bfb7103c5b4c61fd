package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// render turns a dataset into file bytes in the requested format.
func render(data *dataset, format enums.ReportFormat) ([]byte, error) {
	switch format {
	case enums.FormatCSV:
		return renderCSV(data)
	case enums.FormatXLSX:
		return renderXLSX(data)
	case enums.FormatPDF:
		return renderPDF(data)
	case enums.FormatJSON:
		return renderJSON(data)
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

func renderCSV(data *dataset) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, err
	}
	for _, row := range data.Rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(data *dataset) ([]byte, error) {
	file := excelize.NewFile()
	const sheet = "Report"
	file.SetSheetName(file.GetSheetName(0), sheet)

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for col, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
		if err := file.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}
	for rowIdx, row := range data.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(data *dataset) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(data.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	period := fmt.Sprintf("%s to %s", data.From.Format("2 Jan 2006"), data.To.Format("2 Jan 2006"))
	pdf.CellFormat(0, 6, period, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := (pageWidth - left - right) / float64(len(data.Headers))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range data.Headers {
		pdf.CellFormat(width, 8, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range data.Rows {
		for _, cell := range row {
			pdf.CellFormat(width, 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderJSON(data *dataset) ([]byte, error) {
	records := make([]map[string]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		record := make(map[string]string, len(data.Headers))
		for i, header := range data.Headers {
			if i < len(row) {
				record[header] = row[i]
			}
		}
		records = append(records, record)
	}
	return json.MarshalIndent(struct {
		Title string              `json:"title"`
		From  string              `json:"from"`
		To    string              `json:"to"`
		Rows  []map[string]string `json:"rows"`
		Count int                 `json:"count"`
	}{
		Title: data.Title,
		From:  data.From.Format("2006-01-02"),
		To:    data.To.Format("2006-01-02"),
		Rows:  records,
		Count: len(data.Rows),
	}, "", "  ")
}

// contentTypeFor maps a format onto its MIME type.
func contentTypeFor(format enums.ReportFormat) string {
	switch format {
	case enums.FormatCSV:
		return "text/csv"
	case enums.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case enums.FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}
