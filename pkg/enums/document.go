package enums

import "fmt"

// DocumentEntityType names the record a document is attached to.
type DocumentEntityType string

const (
	DocumentEntityVehicle      DocumentEntityType = "vehicle"
	DocumentEntityClient       DocumentEntityType = "client"
	DocumentEntityRepossession DocumentEntityType = "repossession"
	DocumentEntityEmployee     DocumentEntityType = "employee"
	DocumentEntityGeneral      DocumentEntityType = "general"
)

var validDocumentEntityTypes = []DocumentEntityType{
	DocumentEntityVehicle,
	DocumentEntityClient,
	DocumentEntityRepossession,
	DocumentEntityEmployee,
	DocumentEntityGeneral,
}

// IsValid reports whether the value is a known DocumentEntityType.
func (d DocumentEntityType) IsValid() bool {
	for _, candidate := range validDocumentEntityTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentEntityType converts raw input into a DocumentEntityType.
func ParseDocumentEntityType(value string) (DocumentEntityType, error) {
	for _, candidate := range validDocumentEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document entity type %q", value)
}

// DocumentAction is recorded in the document access log.
type DocumentAction string

const (
	DocumentActionView     DocumentAction = "view"
	DocumentActionDownload DocumentAction = "download"
	DocumentActionEdit     DocumentAction = "edit"
)

var validDocumentActions = []DocumentAction{
	DocumentActionView,
	DocumentActionDownload,
	DocumentActionEdit,
}

// IsValid reports whether the value is a known DocumentAction.
func (d DocumentAction) IsValid() bool {
	for _, candidate := range validDocumentActions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentAction converts raw input into a DocumentAction.
func ParseDocumentAction(value string) (DocumentAction, error) {
	for _, candidate := range validDocumentActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document action %q", value)
}

// DocumentStatus tracks the upload lifecycle of a document file.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusActive   DocumentStatus = "active"
	DocumentStatusArchived DocumentStatus = "archived"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusPending,
	DocumentStatusActive,
	DocumentStatusArchived,
}

// IsValid reports whether the value is a known DocumentStatus.
func (d DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentStatus converts raw input into a DocumentStatus.
func ParseDocumentStatus(value string) (DocumentStatus, error) {
	for _, candidate := range validDocumentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document status %q", value)
}
