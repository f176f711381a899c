package shell

import (
	"context"

	"github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

// NoopPublisher drops all notifications. The event store remains the source of truth.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, reservationqueue.Notifications) error {
	return nil
}

// LoggingPublisher writes one info line per published notification.
type LoggingPublisher struct {
	Logger Logger
}

// Publish logs every notification with its kind, resource and version.
func (p LoggingPublisher) Publish(_ context.Context, notifications reservationqueue.Notifications) error {
	if p.Logger == nil {
		return nil
	}

	for _, n := range notifications {
		p.Logger.Info(
			LogMsgNotificationPublished,
			LogAttrNotificationKind, string(n.Kind),
			LogAttrResourceID, n.ResourceID.String(),
			LogAttrReservationID, n.ReservationID().String(),
			LogAttrVersion, n.Version,
		)
	}

	return nil
}
