package shell

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

var (
	// ErrMappingToStorableEventFailed is returned when a notification cannot be serialized.
	ErrMappingToStorableEventFailed = errors.New("mapping to storable event failed for notification")

	// ErrMappingToNotificationFailed is returned when a storable event cannot be turned back into a notification.
	ErrMappingToNotificationFailed = errors.New("mapping to notification failed")

	// ErrUnknownNotificationKind is returned for event types that are not queue notifications.
	ErrUnknownNotificationKind = errors.New("unknown notification kind")
)

// Payload keys used by jsonb predicates.
const (
	PayloadKeyResourceID    = "ResourceID"
	PayloadKeyReservationID = "ReservationID"
	PayloadKeyRequesterID   = "RequesterID"
)

// notificationPayload is the flat JSON document stored per notification.
// Fields that do not belong to the notification's kind stay empty and are omitted.
type notificationPayload struct {
	ResourceID        string     `json:"ResourceID"`
	Version           uint64     `json:"Version"`
	ReservationID     string     `json:"ReservationID,omitempty"`
	RequesterID       string     `json:"RequesterID,omitempty"`
	HeadReservationID string     `json:"HeadReservationID,omitempty"`
	Priority          string     `json:"Priority,omitempty"`
	WaitDeadline      *time.Time `json:"WaitDeadline,omitempty"`
	Reason            string     `json:"Reason,omitempty"`
	RemovedBy         string     `json:"RemovedBy,omitempty"`
	Note              string     `json:"Note,omitempty"`
}

// NotificationKinds lists every kind a queue stream consists of.
func NotificationKinds() []string {
	return []string{
		string(rq.ReservationQueuedKind),
		string(rq.QueueHeadChangedKind),
		string(rq.LoanActivationAuthorizedKind),
		string(rq.WaitDeadlineExpiredFromQueueKind),
		string(rq.ReservationRemovedFromQueueKind),
		string(rq.ActiveLoanClearedKind),
	}
}

// StorableEventFrom converts a Notification and EventMetadata to a StorableEvent.
func StorableEventFrom(n rq.Notification, metadata EventMetadata) (eventstore.StorableEvent, error) {
	payload, err := payloadFrom(n)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailed, err)
	}

	payloadJSON, err := jsoniter.ConfigFastest.Marshal(payload)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailed, err)
	}

	metadataJSON, err := jsoniter.ConfigFastest.Marshal(metadata)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailed, err)
	}

	storableEvent, err := eventstore.BuildStorableEvent(string(n.Kind), n.OccurredAt, payloadJSON, metadataJSON)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailed, err)
	}

	return storableEvent, nil
}

// StorableEventsFrom converts notifications pairwise with their metadata.
func StorableEventsFrom(notifications rq.Notifications, metadata []EventMetadata) (eventstore.StorableEvents, error) {
	if len(notifications) != len(metadata) {
		return nil, fmt.Errorf("%w: %d notifications but %d metadata entries",
			ErrMappingToStorableEventFailed, len(notifications), len(metadata))
	}

	storableEvents := make(eventstore.StorableEvents, 0, len(notifications))
	for i, n := range notifications {
		storableEvent, err := StorableEventFrom(n, metadata[i])
		if err != nil {
			return nil, err
		}

		storableEvents = append(storableEvents, storableEvent)
	}

	return storableEvents, nil
}

// NotificationFrom converts a StorableEvent back into a Notification.
func NotificationFrom(storableEvent eventstore.StorableEvent) (rq.Notification, error) {
	payload := new(notificationPayload)
	if err := jsoniter.ConfigFastest.Unmarshal(storableEvent.PayloadJSON, payload); err != nil {
		return rq.Notification{}, errors.Join(ErrMappingToNotificationFailed, err)
	}

	n, err := notificationFrom(rq.NotificationKind(storableEvent.EventType), storableEvent.OccurredAt, payload)
	if err != nil {
		return rq.Notification{}, errors.Join(ErrMappingToNotificationFailed, err)
	}

	return n, nil
}

// NotificationsFrom converts a list of StorableEvents to Notifications.
func NotificationsFrom(storableEvents eventstore.StorableEvents) (rq.Notifications, error) {
	notifications := make(rq.Notifications, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		n, err := NotificationFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	return notifications, nil
}

func payloadFrom(n rq.Notification) (notificationPayload, error) {
	payload := notificationPayload{
		ResourceID: n.ResourceID.String(),
		Version:    n.Version,
	}

	switch n.Kind {
	case rq.ReservationQueuedKind:
		if n.ReservationQueued == nil {
			return payload, fmt.Errorf("%s without payload", n.Kind)
		}
		deadline := n.ReservationQueued.WaitDeadline.UTC()
		payload.ReservationID = n.ReservationQueued.ReservationID.String()
		payload.RequesterID = n.ReservationQueued.RequesterID.String()
		payload.Priority = n.ReservationQueued.Priority.String()
		payload.WaitDeadline = &deadline

	case rq.QueueHeadChangedKind:
		if n.QueueHeadChanged == nil {
			return payload, fmt.Errorf("%s without payload", n.Kind)
		}
		payload.HeadReservationID = n.QueueHeadChanged.HeadReservationID.String()
		payload.ReservationID = payload.HeadReservationID

	case rq.LoanActivationAuthorizedKind:
		if n.LoanActivationAuthorized == nil {
			return payload, fmt.Errorf("%s without payload", n.Kind)
		}
		payload.ReservationID = n.LoanActivationAuthorized.ReservationID.String()
		payload.RequesterID = n.LoanActivationAuthorized.RequesterID.String()

	case rq.WaitDeadlineExpiredFromQueueKind:
		if n.WaitDeadlineExpiredFromQueue == nil {
			return payload, fmt.Errorf("%s without payload", n.Kind)
		}
		deadline := n.WaitDeadlineExpiredFromQueue.WaitDeadline.UTC()
		payload.ReservationID = n.WaitDeadlineExpiredFromQueue.ReservationID.String()
		payload.RequesterID = n.WaitDeadlineExpiredFromQueue.RequesterID.String()
		payload.WaitDeadline = &deadline

	case rq.ReservationRemovedFromQueueKind:
		if n.ReservationRemovedFromQueue == nil {
			return payload, fmt.Errorf("%s without payload", n.Kind)
		}
		payload.ReservationID = n.ReservationRemovedFromQueue.ReservationID.String()
		payload.RequesterID = n.ReservationRemovedFromQueue.RequesterID.String()
		payload.Reason = n.ReservationRemovedFromQueue.Reason
		payload.RemovedBy = n.ReservationRemovedFromQueue.RemovedBy
		payload.Note = n.ReservationRemovedFromQueue.Note

	case rq.ActiveLoanClearedKind:
		if n.ActiveLoanCleared == nil {
			return payload, fmt.Errorf("%s without payload", n.Kind)
		}
		payload.ReservationID = n.ActiveLoanCleared.ReservationID.String()

	default:
		return payload, fmt.Errorf("%w: %q", ErrUnknownNotificationKind, n.Kind)
	}

	return payload, nil
}

func notificationFrom(kind rq.NotificationKind, occurredAt time.Time, payload *notificationPayload) (rq.Notification, error) {
	resourceID, err := uuid.Parse(payload.ResourceID)
	if err != nil {
		return rq.Notification{}, fmt.Errorf("resource id: %w", err)
	}

	n := rq.Notification{
		Kind:       kind,
		ResourceID: resourceID,
		OccurredAt: rq.ToOccurredAt(occurredAt),
		Version:    payload.Version,
	}

	switch kind {
	case rq.ReservationQueuedKind:
		ids, idErr := parseIDs(payload.ReservationID, payload.RequesterID)
		if idErr != nil {
			return rq.Notification{}, idErr
		}
		priority, priorityErr := rq.PriorityLevelFrom(payload.Priority)
		if priorityErr != nil {
			return rq.Notification{}, priorityErr
		}
		n.ReservationQueued = &rq.ReservationQueued{
			ReservationID: ids[0],
			RequesterID:   ids[1],
			Priority:      priority,
			WaitDeadline:  deadlineOf(payload),
		}

	case rq.QueueHeadChangedKind:
		ids, idErr := parseIDs(payload.HeadReservationID)
		if idErr != nil {
			return rq.Notification{}, idErr
		}
		n.QueueHeadChanged = &rq.QueueHeadChanged{HeadReservationID: ids[0]}

	case rq.LoanActivationAuthorizedKind:
		ids, idErr := parseIDs(payload.ReservationID, payload.RequesterID)
		if idErr != nil {
			return rq.Notification{}, idErr
		}
		n.LoanActivationAuthorized = &rq.LoanActivationAuthorized{ReservationID: ids[0], RequesterID: ids[1]}

	case rq.WaitDeadlineExpiredFromQueueKind:
		ids, idErr := parseIDs(payload.ReservationID, payload.RequesterID)
		if idErr != nil {
			return rq.Notification{}, idErr
		}
		n.WaitDeadlineExpiredFromQueue = &rq.WaitDeadlineExpiredFromQueue{
			ReservationID: ids[0],
			RequesterID:   ids[1],
			WaitDeadline:  deadlineOf(payload),
		}

	case rq.ReservationRemovedFromQueueKind:
		ids, idErr := parseIDs(payload.ReservationID, payload.RequesterID)
		if idErr != nil {
			return rq.Notification{}, idErr
		}
		n.ReservationRemovedFromQueue = &rq.ReservationRemovedFromQueue{
			ReservationID: ids[0],
			RequesterID:   ids[1],
			Reason:        payload.Reason,
			RemovedBy:     payload.RemovedBy,
			Note:          payload.Note,
		}

	case rq.ActiveLoanClearedKind:
		ids, idErr := parseIDs(payload.ReservationID)
		if idErr != nil {
			return rq.Notification{}, idErr
		}
		n.ActiveLoanCleared = &rq.ActiveLoanCleared{ReservationID: ids[0]}

	default:
		return rq.Notification{}, fmt.Errorf("%w: %q", ErrUnknownNotificationKind, kind)
	}

	return n, nil
}

func parseIDs(raw ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("id %q: %w", s, err)
		}
		ids[i] = id
	}

	return ids, nil
}

func deadlineOf(payload *notificationPayload) time.Time {
	if payload.WaitDeadline == nil {
		return time.Time{}
	}

	return payload.WaitDeadline.UTC()
}
