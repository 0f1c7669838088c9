package consumer

import (
	"context"
	"encoding/json"
	"time"

	"leavedesk/internal/allocation"
	"leavedesk/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeEmployeeLifecycle provisions the current period's allocations when an
// employee onboarding event arrives from the HR system. Provisioning skips
// scopes that already exist, so redelivered messages are harmless.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	allocationService allocation.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.EmployeeOnboardedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee onboarded event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		period := time.Now().UTC().Year()
		resp, err := allocationService.Provision(ctx, allocation.ProvisionRequest{
			EmployeeID: event.EmployeeID,
			Period:     period,
		})
		if err != nil {
			log.Error("provision allocations from onboarding event failed",
				zap.String("employee_id", event.EmployeeID),
				zap.Int("period", period),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("allocations provisioned from onboarding event",
			zap.String("employee_id", event.EmployeeID),
			zap.Int("period", period),
			zap.Int("provisioned", resp.Provisioned),
			zap.Int("skipped", resp.Skipped),
		)
	}
}
