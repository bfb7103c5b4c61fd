package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// dataset is the tabular payload a renderer turns into a file.
type dataset struct {
	Title   string
	From    time.Time
	To      time.Time
	Headers []string
	Rows    [][]string
}

// BuildDataset assembles the table for a report type over [from, to).
func (r *Repository) BuildDataset(ctx context.Context, reportType enums.ReportType, from, to time.Time) (*dataset, error) {
	switch reportType {
	case enums.ReportFinancial:
		return r.financialDataset(ctx, from, to)
	case enums.ReportVehicle, enums.ReportInventory:
		return r.vehicleDataset(ctx, reportType, from, to)
	case enums.ReportClient:
		return r.clientDataset(ctx, from, to)
	case enums.ReportPayment:
		return r.paymentDataset(ctx, from, to)
	case enums.ReportExpense:
		return r.expenseDataset(ctx, from, to)
	case enums.ReportSales:
		return r.salesDataset(ctx, from, to)
	default:
		return nil, fmt.Errorf("unsupported report type %q", reportType)
	}
}

func (r *Repository) financialDataset(ctx context.Context, from, to time.Time) (*dataset, error) {
	var revenue decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("SUM(amount)").
		Where("payment_date >= ? AND payment_date < ?", from, to).
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	var expenses decimal.NullDecimal
	err = r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("SUM(amount + tax_amount)").
		Where("status IN ?", []enums.ExpenseStatus{enums.ExpenseStatusApproved, enums.ExpenseStatusPaid}).
		Where("expense_date >= ? AND expense_date < ?", from, to).
		Scan(&expenses).Error
	if err != nil {
		return nil, err
	}
	var payroll decimal.NullDecimal
	err = r.db.WithContext(ctx).Model(&models.PayrollRun{}).
		Select("SUM(total_net)").
		Where("status = ? AND payroll_month >= ? AND payroll_month < ?", enums.PayrollRunPaid, from, to).
		Scan(&payroll).Error
	if err != nil {
		return nil, err
	}

	rev := nullOrZero(revenue)
	exp := nullOrZero(expenses)
	pay := nullOrZero(payroll)
	net := rev.Sub(exp).Sub(pay)
	return &dataset{
		Title:   "Financial Summary",
		From:    from,
		To:      to,
		Headers: []string{"Metric", "Amount"},
		Rows: [][]string{
			{"Revenue", rev.StringFixed(2)},
			{"Operating Expenses", exp.StringFixed(2)},
			{"Payroll", pay.StringFixed(2)},
			{"Net", net.StringFixed(2)},
		},
	}, nil
}

func (r *Repository) vehicleDataset(ctx context.Context, reportType enums.ReportType, from, to time.Time) (*dataset, error) {
	query := r.db.WithContext(ctx).Model(&models.Vehicle{}).Order("created_at ASC")
	title := "Vehicle Register"
	if reportType == enums.ReportInventory {
		title = "Current Inventory"
		query = query.Where("status IN ?", []enums.VehicleStatus{
			enums.VehicleStatusAvailable, enums.VehicleStatusReserved, enums.VehicleStatusMaintenance,
		})
	} else {
		query = query.Where("created_at >= ? AND created_at < ?", from, to)
	}
	var vehicles []models.Vehicle
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(vehicles))
	for i := range vehicles {
		v := vehicles[i]
		registration := ""
		if v.RegistrationNumber != nil {
			registration = *v.RegistrationNumber
		}
		rows = append(rows, []string{
			v.VIN,
			registration,
			fmt.Sprintf("%s %s %d", v.Make, v.Model, v.Year),
			string(v.Status),
			v.PurchasePrice.StringFixed(2),
			v.SellingPrice.StringFixed(2),
			v.Profit().StringFixed(2),
		})
	}
	return &dataset{
		Title:   title,
		From:    from,
		To:      to,
		Headers: []string{"VIN", "Registration", "Vehicle", "Status", "Purchase Price", "Selling Price", "Margin"},
		Rows:    rows,
	}, nil
}

func (r *Repository) clientDataset(ctx context.Context, from, to time.Time) (*dataset, error) {
	var clients []models.Client
	err := r.db.WithContext(ctx).Model(&models.Client{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(clients))
	for i := range clients {
		c := clients[i]
		email := ""
		if c.Email != nil {
			email = *c.Email
		}
		blacklisted := "no"
		if c.IsBlacklisted {
			blacklisted = "yes"
		}
		rows = append(rows, []string{
			c.FullName(),
			c.Phone,
			email,
			string(c.Status),
			blacklisted,
			c.CreatedAt.UTC().Format("2006-01-02"),
		})
	}
	return &dataset{
		Title:   "Client Register",
		From:    from,
		To:      to,
		Headers: []string{"Name", "Phone", "Email", "Status", "Blacklisted", "Registered"},
		Rows:    rows,
	}, nil
}

func (r *Repository) paymentDataset(ctx context.Context, from, to time.Time) (*dataset, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("payment_date >= ? AND payment_date < ?", from, to).
		Order("payment_date ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(payments))
	for i := range payments {
		p := payments[i]
		ref := ""
		if p.TransactionRef != nil {
			ref = *p.TransactionRef
		}
		rows = append(rows, []string{
			p.ReceiptNumber,
			p.Amount.StringFixed(2),
			string(p.Method),
			ref,
			p.PaymentDate.UTC().Format("2006-01-02"),
		})
	}
	return &dataset{
		Title:   "Payments",
		From:    from,
		To:      to,
		Headers: []string{"Receipt", "Amount", "Method", "Transaction Ref", "Payment Date"},
		Rows:    rows,
	}, nil
}

func (r *Repository) expenseDataset(ctx context.Context, from, to time.Time) (*dataset, error) {
	var expenses []models.Expense
	err := r.db.WithContext(ctx).Model(&models.Expense{}).
		Preload("Category").
		Where("expense_date >= ? AND expense_date < ?", from, to).
		Where("status IN ?", []enums.ExpenseStatus{enums.ExpenseStatusApproved, enums.ExpenseStatusPaid}).
		Order("expense_date ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(expenses))
	for i := range expenses {
		e := expenses[i]
		category := ""
		if e.Category != nil {
			category = e.Category.Name
		}
		rows = append(rows, []string{
			e.ExpenseNumber,
			category,
			e.Description,
			e.TotalAmount().StringFixed(2),
			string(e.Status),
			e.ExpenseDate.UTC().Format("2006-01-02"),
		})
	}
	return &dataset{
		Title:   "Expenses",
		From:    from,
		To:      to,
		Headers: []string{"Expense", "Category", "Description", "Total", "Status", "Date"},
		Rows:    rows,
	}, nil
}

func (r *Repository) salesDataset(ctx context.Context, from, to time.Time) (*dataset, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("status = ? AND date_sold >= ? AND date_sold < ?", enums.VehicleStatusSold, from, to).
		Order("date_sold ASC").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(vehicles))
	total := decimal.Zero
	for i := range vehicles {
		v := vehicles[i]
		soldOn := ""
		if v.DateSold != nil {
			soldOn = v.DateSold.UTC().Format("2006-01-02")
		}
		total = total.Add(v.SellingPrice)
		rows = append(rows, []string{
			v.VIN,
			fmt.Sprintf("%s %s %d", v.Make, v.Model, v.Year),
			v.SellingPrice.StringFixed(2),
			v.Profit().StringFixed(2),
			soldOn,
		})
	}
	rows = append(rows, []string{"", "Total", total.StringFixed(2), "", ""})
	return &dataset{
		Title:   "Vehicle Sales",
		From:    from,
		To:      to,
		Headers: []string{"VIN", "Vehicle", "Sale Price", "Margin", "Sold On"},
		Rows:    rows,
	}, nil
}

func nullOrZero(value decimal.NullDecimal) decimal.Decimal {
	if value.Valid {
		return value.Decimal
	}
	return decimal.Zero
}
