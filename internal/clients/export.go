package clients

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

var exportHeader = []string{
	"ID", "Full Name", "ID Type", "ID Number", "Phone", "Email", "City",
	"Status", "Credit Limit", "Current Debt", "Available Credit",
	"Blacklisted", "Registered At",
}

func (s *service) ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error) {
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list clients for export")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write export header")
	}
	for i := range rows {
		c := &rows[i]
		record := []string{
			c.ID.String(),
			c.FullName(),
			c.IDType.String(),
			c.IDNumber,
			c.Phone,
			stringOrEmpty(c.Email),
			stringOrEmpty(c.City),
			c.Status.String(),
			c.CreditLimit.StringFixed(2),
			c.CurrentDebt.StringFixed(2),
			c.AvailableCredit().StringFixed(2),
			strconv.FormatBool(c.IsBlacklisted),
			c.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write export row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush export")
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
