package vehicles

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

var exportHeader = []string{
	"VIN", "Registration", "Make", "Model", "Year", "Color", "Mileage",
	"Fuel", "Transmission", "Body", "Condition", "Purchase Price",
	"Selling Price", "Status", "Featured", "Date Added",
}

// ExportCSV renders the filtered inventory as CSV.
func (s *service) ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error) {
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export vehicles")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range rows {
		v := rows[i]
		record := []string{
			v.VIN,
			stringOrEmpty(v.RegistrationNumber),
			v.Make,
			v.Model,
			strconv.Itoa(v.Year),
			v.Color,
			strconv.Itoa(v.Mileage),
			string(v.FuelType),
			string(v.Transmission),
			string(v.BodyType),
			string(v.Condition),
			v.PurchasePrice.StringFixed(2),
			v.SellingPrice.StringFixed(2),
			string(v.Status),
			strconv.FormatBool(v.IsFeatured),
			v.CreatedAt.Format("2006-01-02"),
		}
		if err := writer.Write(record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return buf.Bytes(), nil
}

// ExportPDF renders the filtered inventory as a landscape table.
func (s *service) ExportPDF(ctx context.Context, filter ListFilter) ([]byte, error) {
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export vehicles")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Vehicle Inventory", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Vehicle Inventory", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	headers := []string{"VIN", "Make", "Model", "Year", "Mileage", "Selling Price", "Status"}
	widths := []float64{45, 35, 40, 18, 28, 40, 30}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i := range rows {
		v := rows[i]
		cells := []string{
			v.VIN,
			v.Make,
			v.Model,
			strconv.Itoa(v.Year),
			fmt.Sprintf("%d km", v.Mileage),
			v.SellingPrice.StringFixed(2),
			string(v.Status),
		}
		for j, cell := range cells {
			pdf.CellFormat(widths[j], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render pdf")
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
