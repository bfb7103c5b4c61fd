package enums

import "fmt"

// ReportType selects the dataset a report is built from.
type ReportType string

const (
	ReportFinancial ReportType = "financial"
	ReportVehicle   ReportType = "vehicle"
	ReportClient    ReportType = "client"
	ReportPayment   ReportType = "payment"
	ReportExpense   ReportType = "expense"
	ReportSales     ReportType = "sales"
	ReportInventory ReportType = "inventory"
)

var validReportTypes = []ReportType{
	ReportFinancial,
	ReportVehicle,
	ReportClient,
	ReportPayment,
	ReportExpense,
	ReportSales,
	ReportInventory,
}

// IsValid reports whether the value is a known ReportType.
func (r ReportType) IsValid() bool {
	for _, candidate := range validReportTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportType converts raw input into a ReportType.
func ParseReportType(value string) (ReportType, error) {
	for _, candidate := range validReportTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report type %q", value)
}

// ReportFormat selects the renderer for a report execution.
type ReportFormat string

const (
	FormatCSV  ReportFormat = "csv"
	FormatXLSX ReportFormat = "xlsx"
	FormatPDF  ReportFormat = "pdf"
	FormatJSON ReportFormat = "json"
)

var validReportFormats = []ReportFormat{
	FormatCSV,
	FormatXLSX,
	FormatPDF,
	FormatJSON,
}

// IsValid reports whether the value is a known ReportFormat.
func (r ReportFormat) IsValid() bool {
	for _, candidate := range validReportFormats {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportFormat converts raw input into a ReportFormat.
func ParseReportFormat(value string) (ReportFormat, error) {
	for _, candidate := range validReportFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report format %q", value)
}

// ReportExecutionStatus tracks a single report run.
type ReportExecutionStatus string

const (
	ExecutionPending   ReportExecutionStatus = "pending"
	ExecutionRunning   ReportExecutionStatus = "running"
	ExecutionCompleted ReportExecutionStatus = "completed"
	ExecutionFailed    ReportExecutionStatus = "failed"
)

var validReportExecutionStatuses = []ReportExecutionStatus{
	ExecutionPending,
	ExecutionRunning,
	ExecutionCompleted,
	ExecutionFailed,
}

// IsValid reports whether the value is a known ReportExecutionStatus.
func (r ReportExecutionStatus) IsValid() bool {
	for _, candidate := range validReportExecutionStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportExecutionStatus converts raw input into a ReportExecutionStatus.
func ParseReportExecutionStatus(value string) (ReportExecutionStatus, error) {
	for _, candidate := range validReportExecutionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report execution status %q", value)
}

// ReportFrequency schedules recurring report runs.
type ReportFrequency string

const (
	ReportDaily   ReportFrequency = "daily"
	ReportWeekly  ReportFrequency = "weekly"
	ReportMonthly ReportFrequency = "monthly"
)

var validReportFrequencies = []ReportFrequency{
	ReportDaily,
	ReportWeekly,
	ReportMonthly,
}

// IsValid reports whether the value is a known ReportFrequency.
func (r ReportFrequency) IsValid() bool {
	for _, candidate := range validReportFrequencies {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportFrequency converts raw input into a ReportFrequency.
func ParseReportFrequency(value string) (ReportFrequency, error) {
	for _, candidate := range validReportFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report frequency %q", value)
}
