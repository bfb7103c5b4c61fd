package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/api/middleware"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Event is a service-originated audit entry (login, logout, export).
type Event struct {
	UserID      *uuid.UUID
	UserEmail   *string
	Action      enums.AuditAction
	Description string
	EntityName  *string
	EntityID    *string
	Changes     json.RawMessage
	IPAddress   *string
	UserAgent   *string
}

// Service records and queries the audit trail. It also satisfies the
// middleware AuditSink so HTTP mutations land in the same store.
type Service interface {
	RecordHTTP(ctx context.Context, entry middleware.AuditEntry) error
	RecordEvent(ctx context.Context, event Event) error
	ListLogs(ctx context.Context, filter LogFilter, params pagination.Params) (Page[LogDTO], error)
	ListLoginHistory(ctx context.Context, filter LoginHistoryFilter, params pagination.Params) (Page[LoginHistoryDTO], error)
}

type repository interface {
	Insert(ctx context.Context, entry models.AuditLog) (*models.AuditLog, error)
	ListLogs(ctx context.Context, filter LogFilter, params pagination.Params) ([]models.AuditLog, error)
	ListLoginHistory(ctx context.Context, filter LoginHistoryFilter, params pagination.Params) ([]models.LoginHistory, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo    repository
	db      txRunner
	emitter eventEmitter
	logg    *logger.Logger
}

// NewService builds the audit service. The emitter is optional; without
// it audit rows are stored but not streamed.
func NewService(repo repository, db txRunner, emitter eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	return &service{repo: repo, db: db, emitter: emitter, logg: logg}, nil
}

func (s *service) RecordHTTP(ctx context.Context, entry middleware.AuditEntry) error {
	row := models.AuditLog{
		UserID:      entry.UserID,
		Action:      entry.Action,
		Description: describeHTTP(entry),
		Changes:     entry.Changes,
	}
	if entry.EntityName != "" {
		name := entry.EntityName
		row.EntityName = &name
	}
	row.EntityID = entry.EntityID
	if entry.IPAddress != "" {
		ip := entry.IPAddress
		row.IPAddress = &ip
	}
	if entry.UserAgent != "" {
		ua := truncate(entry.UserAgent, 500)
		row.UserAgent = &ua
	}
	if entry.RequestPath != "" {
		path := entry.RequestPath
		row.RequestPath = &path
	}
	if entry.RequestMethod != "" {
		method := entry.RequestMethod
		row.RequestMethod = &method
	}
	if entry.StatusCode > 0 {
		meta, err := json.Marshal(map[string]int{"status_code": entry.StatusCode})
		if err == nil {
			row.Metadata = meta
		}
	}
	return s.store(ctx, row)
}

func (s *service) RecordEvent(ctx context.Context, event Event) error {
	if !event.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid audit action")
	}
	row := models.AuditLog{
		UserID:      event.UserID,
		UserEmail:   event.UserEmail,
		Action:      event.Action,
		Description: event.Description,
		EntityName:  event.EntityName,
		EntityID:    event.EntityID,
		Changes:     event.Changes,
		IPAddress:   event.IPAddress,
	}
	if event.UserAgent != nil {
		ua := truncate(*event.UserAgent, 500)
		row.UserAgent = &ua
	}
	return s.store(ctx, row)
}

// store writes the audit row and queues the retention stream event in
// one transaction when an emitter is wired.
func (s *service) store(ctx context.Context, row models.AuditLog) error {
	if s.emitter == nil || s.db == nil {
		_, err := s.repo.Insert(ctx, row)
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		payload := payloads.AuditRecordedEvent{
			AuditLogID: row.ID,
			UserID:     row.UserID,
			Action:     row.Action,
			RecordedAt: row.CreatedAt,
		}
		if row.EntityName != nil {
			payload.EntityName = *row.EntityName
		}
		if row.EntityID != nil {
			payload.EntityID = *row.EntityID
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuditRecorded,
			AggregateType: enums.AggregateAuditLog,
			AggregateID:   row.ID,
			Data:          payload,
			Version:       1,
		})
	})
}

func (s *service) ListLogs(ctx context.Context, filter LogFilter, params pagination.Params) (Page[LogDTO], error) {
	rows, err := s.repo.ListLogs(ctx, filter, params)
	if err != nil {
		return Page[LogDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list audit logs")
	}
	items := make([]LogDTO, 0, len(rows))
	for i := range rows {
		items = append(items, logFromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(item LogDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	}), nil
}

func (s *service) ListLoginHistory(ctx context.Context, filter LoginHistoryFilter, params pagination.Params) (Page[LoginHistoryDTO], error) {
	rows, err := s.repo.ListLoginHistory(ctx, filter, params)
	if err != nil {
		return Page[LoginHistoryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list login history")
	}
	items := make([]LoginHistoryDTO, 0, len(rows))
	for i := range rows {
		items = append(items, loginFromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(item LoginHistoryDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.LoginTime, ID: item.ID}
	}), nil
}

func describeHTTP(entry middleware.AuditEntry) string {
	entity := entry.EntityName
	if entity == "" {
		entity = "resource"
	}
	return fmt.Sprintf("%s %s via %s %s", entry.Action, entity, entry.RequestMethod, entry.RequestPath)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}

// interface guard
var _ middleware.AuditSink = Service(nil)
