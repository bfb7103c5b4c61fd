package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/idempotency"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
)

const domainNotificationConsumer = "domain-notifications"

type consumerRepository interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	FindPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	ModuleRecipients(ctx context.Context, module enums.Module) ([]uuid.UUID, error)
}

// Consumer turns domain events into in-app notification rows, applying
// each recipient's preferences before inserting.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer builds the domain notification consumer.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	draft, err := c.draftFor(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	if draft == nil {
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, domainNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.deliver(ctx, draft); err != nil {
		c.logg.Error(logCtx, "notification delivery failed", err)
		_ = c.idempotency.Delete(ctx, domainNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

// draft describes one notification before recipient fan-out. Either
// Recipients lists explicit user IDs or Module broadcasts to everyone
// whose role can read it.
type draft struct {
	Type       enums.NotificationType
	Priority   enums.NotificationPriority
	Title      string
	Message    string
	Link       string
	EntityType string
	EntityID   *uuid.UUID
	Recipients []uuid.UUID
	Module     enums.Module
}

func (c *Consumer) draftFor(eventType enums.OutboxEventType, data json.RawMessage) (*draft, error) {
	switch eventType {
	case enums.EventPaymentOverdue:
		var p payloads.PaymentOverdueEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		priority := enums.PriorityHigh
		if p.DaysOverdue >= 30 {
			priority = enums.PriorityUrgent
		}
		return &draft{
			Type:     enums.NotificationPaymentOverdue,
			Priority: priority,
			Title:    "Payment overdue",
			Message: fmt.Sprintf("Installment of %s due on %s is %d days overdue.",
				p.AmountDue.StringFixed(2), p.DueDate.Format("2 Jan 2006"), p.DaysOverdue),
			Link:       fmt.Sprintf("/clients/%s/payments", p.ClientID),
			EntityType: "payment_schedule",
			EntityID:   &p.ScheduleID,
			Module:     enums.ModulePayments,
		}, nil

	case enums.EventPaymentRecorded:
		var p payloads.PaymentRecordedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if !p.PaidOff {
			return nil, nil // routine receipts stay off the feed
		}
		return &draft{
			Type:     enums.NotificationPaymentReminder,
			Priority: enums.PriorityMedium,
			Title:    "Agreement settled",
			Message: fmt.Sprintf("Receipt %s cleared the remaining balance on the financing agreement.",
				p.ReceiptNumber),
			Link:       fmt.Sprintf("/clients/%s/payments", p.ClientID),
			EntityType: "payment",
			EntityID:   &p.PaymentID,
			Module:     enums.ModulePayments,
		}, nil

	case enums.EventInsuranceExpiring, enums.EventInsuranceExpired:
		var p payloads.InsuranceExpiryEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		priority := enums.PriorityMedium
		title := "Insurance policy expiring"
		message := fmt.Sprintf("Policy %s expires on %s (%d days left).",
			p.PolicyNumber, p.EndDate.Format("2 Jan 2006"), p.DaysLeft)
		if eventType == enums.EventInsuranceExpired {
			priority = enums.PriorityHigh
			title = "Insurance policy expired"
			message = fmt.Sprintf("Policy %s expired on %s.", p.PolicyNumber, p.EndDate.Format("2 Jan 2006"))
		} else if p.DaysLeft <= 7 {
			priority = enums.PriorityHigh
		}
		return &draft{
			Type:       enums.NotificationInsuranceExpiry,
			Priority:   priority,
			Title:      title,
			Message:    message,
			Link:       fmt.Sprintf("/vehicles/%s/insurance", p.VehicleID),
			EntityType: "insurance_policy",
			EntityID:   &p.PolicyID,
			Module:     enums.ModuleInsurance,
		}, nil

	case enums.EventAuctionScheduled, enums.EventAuctionActivated:
		var p payloads.AuctionLifecycleEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		title := "Auction scheduled"
		message := fmt.Sprintf("Auction %s opens on %s.", p.AuctionNumber, p.StartTime.Format("2 Jan 2006 15:04"))
		if eventType == enums.EventAuctionActivated {
			title = "Auction live"
			message = fmt.Sprintf("Auction %s is now accepting bids until %s.",
				p.AuctionNumber, p.EndTime.Format("2 Jan 2006 15:04"))
		}
		return &draft{
			Type:       enums.NotificationAuctionScheduled,
			Priority:   enums.PriorityMedium,
			Title:      title,
			Message:    message,
			Link:       fmt.Sprintf("/auctions/%s", p.AuctionID),
			EntityType: "auction",
			EntityID:   &p.AuctionID,
			Module:     enums.ModuleAuctions,
		}, nil

	case enums.EventAuctionCompleted:
		var p payloads.AuctionCompletedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.WinnerID != nil {
			price := ""
			if p.FinalPrice != nil {
				price = " at " + p.FinalPrice.StringFixed(2)
			}
			return &draft{
				Type:       enums.NotificationAuctionWon,
				Priority:   enums.PriorityHigh,
				Title:      "Auction won",
				Message:    fmt.Sprintf("Your bid won auction %s%s.", p.AuctionNumber, price),
				Link:       fmt.Sprintf("/auctions/%s", p.AuctionID),
				EntityType: "auction",
				EntityID:   &p.AuctionID,
				Recipients: []uuid.UUID{*p.WinnerID},
			}, nil
		}
		return &draft{
			Type:       enums.NotificationAuctionScheduled,
			Priority:   enums.PriorityMedium,
			Title:      "Auction closed without a sale",
			Message:    fmt.Sprintf("Auction %s ended with no qualifying bid.", p.AuctionNumber),
			Link:       fmt.Sprintf("/auctions/%s", p.AuctionID),
			EntityType: "auction",
			EntityID:   &p.AuctionID,
			Module:     enums.ModuleAuctions,
		}, nil

	case enums.EventBidOutbid:
		var p payloads.BidOutbidEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &draft{
			Type:       enums.NotificationAuctionOutbid,
			Priority:   enums.PriorityHigh,
			Title:      "You have been outbid",
			Message:    fmt.Sprintf("A bid of %s now leads the auction.", p.OutbidAmount.StringFixed(2)),
			Link:       fmt.Sprintf("/auctions/%s", p.AuctionID),
			EntityType: "auction",
			EntityID:   &p.AuctionID,
			Recipients: []uuid.UUID{p.BidderID},
		}, nil

	case enums.EventRepossessionStatusChanged:
		var p payloads.RepossessionStatusChangedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &draft{
			Type:       enums.NotificationRepossessionUpdate,
			Priority:   enums.PriorityHigh,
			Title:      "Repossession case updated",
			Message:    fmt.Sprintf("Case %s moved from %s to %s.", p.CaseNumber, p.OldStatus, p.NewStatus),
			Link:       fmt.Sprintf("/repossessions/%s", p.RepossessionID),
			EntityType: "repossession",
			EntityID:   &p.RepossessionID,
			Module:     enums.ModuleRepossessions,
		}, nil

	case enums.EventVehicleStatusChanged:
		var p payloads.VehicleStatusChangedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.NewStatus != enums.VehicleStatusAvailable {
			return nil, nil
		}
		return &draft{
			Type:       enums.NotificationVehicleAvailable,
			Priority:   enums.PriorityLow,
			Title:      "Vehicle back in stock",
			Message:    fmt.Sprintf("Vehicle %s is available for sale again.", p.VIN),
			Link:       fmt.Sprintf("/vehicles/%s", p.VehicleID),
			EntityType: "vehicle",
			EntityID:   &p.VehicleID,
			Module:     enums.ModuleVehicles,
		}, nil

	case enums.EventExpenseSubmitted:
		var p payloads.ExpenseStatusEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &draft{
			Type:     enums.NotificationExpenseApproval,
			Priority: enums.PriorityMedium,
			Title:    "Expense awaiting approval",
			Message: fmt.Sprintf("Expense %s for %s was submitted for approval.",
				p.ExpenseNumber, p.Total.StringFixed(2)),
			Link:       fmt.Sprintf("/expenses/%s", p.ExpenseID),
			EntityType: "expense",
			EntityID:   &p.ExpenseID,
			Module:     enums.ModuleExpenses,
		}, nil

	case enums.EventExpenseApproved, enums.EventExpenseRejected, enums.EventExpensePaid:
		var p payloads.ExpenseStatusEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.SubmittedBy == nil || *p.SubmittedBy == uuid.Nil {
			return nil, nil
		}
		title := "Expense approved"
		message := fmt.Sprintf("Expense %s was approved.", p.ExpenseNumber)
		switch eventType {
		case enums.EventExpenseRejected:
			title = "Expense rejected"
			message = fmt.Sprintf("Expense %s was rejected.", p.ExpenseNumber)
			if p.Reason != "" {
				message = fmt.Sprintf("Expense %s was rejected: %s", p.ExpenseNumber, p.Reason)
			}
		case enums.EventExpensePaid:
			title = "Expense paid"
			message = fmt.Sprintf("Expense %s for %s has been paid out.", p.ExpenseNumber, p.Total.StringFixed(2))
		}
		return &draft{
			Type:       enums.NotificationExpenseApproval,
			Priority:   enums.PriorityMedium,
			Title:      title,
			Message:    message,
			Link:       fmt.Sprintf("/expenses/%s", p.ExpenseID),
			EntityType: "expense",
			EntityID:   &p.ExpenseID,
			Recipients: []uuid.UUID{*p.SubmittedBy},
		}, nil

	case enums.EventNotificationRequested:
		var p payloads.NotificationRequestedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if len(p.Recipients) == 0 {
			return nil, nil
		}
		d := &draft{
			Type:       p.Type,
			Priority:   p.Priority,
			Title:      p.Title,
			Message:    p.Message,
			Link:       p.Link,
			EntityType: p.EntityType,
			EntityID:   p.EntityID,
			Recipients: p.Recipients,
		}
		if !d.Type.IsValid() {
			d.Type = enums.NotificationGeneral
		}
		if !d.Priority.IsValid() {
			d.Priority = enums.PriorityMedium
		}
		return d, nil

	default:
		return nil, nil
	}
}

func (c *Consumer) deliver(ctx context.Context, d *draft) error {
	recipients := d.Recipients
	if len(recipients) == 0 {
		resolved, err := c.repo.ModuleRecipients(ctx, d.Module)
		if err != nil {
			return fmt.Errorf("resolve recipients: %w", err)
		}
		recipients = resolved
	}

	hour := c.now().Hour()
	seen := make(map[uuid.UUID]struct{}, len(recipients))
	var rows []models.Notification
	for _, userID := range recipients {
		if userID == uuid.Nil {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		pref, err := c.repo.FindPreference(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load preference: %w", err)
			}
			pref = defaultPreference(userID)
		}
		if !pref.ShouldNotify(d.Type, d.Priority) {
			continue
		}
		if !channelsInclude(pref.Channels(d.Priority, hour), enums.ChannelInApp) {
			continue
		}

		row := models.Notification{
			UserID:   userID,
			Type:     d.Type,
			Priority: d.Priority,
			Title:    d.Title,
			Message:  d.Message,
			EntityID: d.EntityID,
		}
		if d.Link != "" {
			link := d.Link
			row.Link = &link
		}
		if d.EntityType != "" {
			entityType := d.EntityType
			row.EntityType = &entityType
		}
		rows = append(rows, row)
	}
	return c.repo.CreateBatch(ctx, rows)
}

func channelsInclude(channels []enums.NotificationChannel, want enums.NotificationChannel) bool {
	for _, channel := range channels {
		if channel == want {
			return true
		}
	}
	return false
}
