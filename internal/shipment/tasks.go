package shipment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-envio/internal/common"
	"github.com/noah-isme/backend-envio/internal/obs"
)

// TypeStatusChanged is the task type for shipment lifecycle notifications.
const TypeStatusChanged = "shipment:status"

// StatusPayload is the body of a status notification task.
type StatusPayload struct {
	TrackingCode string `json:"tracking_code"`
	Status       Status `json:"status"`
	CustomerID   string `json:"customer_id"`
}

// Notifier enqueues status notification tasks. A nil notifier or client is a
// no-op so the service works without a task backend.
type Notifier struct {
	Client *asynq.Client
	Logger *zerolog.Logger
}

// StatusChanged publishes a notification task for the given transition.
func (n *Notifier) StatusChanged(ctx context.Context, sh Shipment) {
	if n == nil || n.Client == nil {
		return
	}
	payload, err := json.Marshal(StatusPayload{
		TrackingCode: sh.TrackingCode,
		Status:       sh.Status,
		CustomerID:   sh.CustomerID,
	})
	if err != nil {
		return
	}
	task := asynq.NewTask(TypeStatusChanged, payload)
	if _, err := n.Client.EnqueueContext(ctx, task); err != nil {
		if n.Logger != nil {
			n.Logger.Error().Err(err).
				Str("tracking_code", sh.TrackingCode).
				Str("status", string(sh.Status)).
				Msg("enqueue status notification")
		}
		return
	}
	obs.ObserveShipmentNotification(string(sh.Status))
}

// StatusTaskHandler consumes status notification tasks and delivers the
// customer-facing message.
type StatusTaskHandler struct {
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *StatusTaskHandler) ProcessTask(_ context.Context, task *asynq.Task) error {
	var payload StatusPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode status payload: %w", err)
	}
	h.Logger.Info().
		Str("tracking_code", payload.TrackingCode).
		Str("status", string(payload.Status)).
		Str("customer_id", payload.CustomerID).
		Msg("shipment status notification")
	if h.Mail == nil {
		return nil
	}
	subject, body := notificationContent(payload)
	if subject == "" {
		return nil
	}
	return h.Mail.Send(payload.CustomerID, subject, body)
}

func notificationContent(p StatusPayload) (string, string) {
	switch p.Status {
	case StatusPending:
		return "Envío registrado", fmt.Sprintf("Su envío %s fue registrado y está pendiente de recolección.", p.TrackingCode)
	case StatusCollected:
		return "Envío recolectado", fmt.Sprintf("Su envío %s ha sido recolectado.", p.TrackingCode)
	case StatusWarehouse:
		return "Envío en bodega", fmt.Sprintf("Su envío %s llegó a bodega.", p.TrackingCode)
	case StatusInTransit:
		return "Envío en tránsito", fmt.Sprintf("Su envío %s está en camino.", p.TrackingCode)
	case StatusDelivered:
		return "Envío entregado", fmt.Sprintf("Su envío %s ha sido entregado.", p.TrackingCode)
	default:
		return "", ""
	}
}
