package payments

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

var exportHeader = []string{
	"Receipt", "Agreement", "Amount", "Method", "Transaction Ref",
	"Payment Date", "Recorded At",
}

// ExportCSV renders the filtered payments as CSV.
func (s *service) ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error) {
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export payments")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range rows {
		p := rows[i]
		record := []string{
			p.ReceiptNumber,
			p.ClientVehicleID.String(),
			p.Amount.StringFixed(2),
			string(p.Method),
			stringOrEmpty(p.TransactionRef),
			p.PaymentDate.UTC().Format("2006-01-02"),
			p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
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

// ExportPDF renders the filtered payments as a landscape table.
func (s *service) ExportPDF(ctx context.Context, filter ListFilter) ([]byte, error) {
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export payments")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Payments", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Payments", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	headers := []string{"Receipt", "Amount", "Method", "Transaction Ref", "Payment Date"}
	widths := []float64{55, 40, 35, 75, 40}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i := range rows {
		p := rows[i]
		cells := []string{
			p.ReceiptNumber,
			p.Amount.StringFixed(2),
			string(p.Method),
			stringOrEmpty(p.TransactionRef),
			p.PaymentDate.UTC().Format("2006-01-02"),
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

// ReceiptPDF renders a single payment as a printable receipt.
func (s *service) ReceiptPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find payment")
	}
	agreement, err := s.repo.FindAgreement(ctx, payment.ClientVehicleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find agreement")
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(fmt.Sprintf("Receipt %s", payment.ReceiptNumber), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, payment.ReceiptNumber, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}
	line("Date", payment.PaymentDate.UTC().Format("2006-01-02"))
	line("Amount", "KES "+payment.Amount.StringFixed(2))
	line("Method", string(payment.Method))
	if payment.TransactionRef != nil {
		line("Transaction Ref", *payment.TransactionRef)
	}
	line("Agreement Balance", "KES "+agreement.Balance.StringFixed(2))
	if payment.Notes != nil {
		line("Notes", *payment.Notes)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt")
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
