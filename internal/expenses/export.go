package expenses

import (
	"bytes"
	"context"
	"encoding/csv"

	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

var exportHeader = []string{
	"Expense", "Category", "Description", "Vendor", "Amount", "Tax",
	"Total", "Status", "Expense Date", "Submitted By",
}

// ExportCSV renders the filtered expenses as CSV.
func (s *service) ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error) {
	rows, err := s.repo.ListAllExpenses(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export expenses")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range rows {
		e := rows[i]
		category := ""
		if e.Category != nil {
			category = e.Category.Name
		}
		vendor := ""
		if e.VendorName != nil {
			vendor = *e.VendorName
		}
		record := []string{
			e.ExpenseNumber,
			category,
			e.Description,
			vendor,
			e.Amount.StringFixed(2),
			e.TaxAmount.StringFixed(2),
			e.TotalAmount().StringFixed(2),
			string(e.Status),
			e.ExpenseDate.UTC().Format("2006-01-02"),
			e.SubmittedBy.String(),
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
