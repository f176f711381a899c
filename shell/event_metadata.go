package shell

import (
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
)

// ErrMappingToEventMetadataFailed is returned when stored metadata cannot be decoded.
var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// EventMetadata is stored next to every notification of a queue.
//
// MessageID identifies the stored notification itself. CausationID is the reservation the command
// acted on and stays empty for queue-wide commands like ExpireOverdue. CorrelationID ties together
// all notifications written by one command and everything that follows from them.
type EventMetadata struct {
	MessageID     string `json:"MessageID"`
	CausationID   string `json:"CausationID,omitempty"`
	CorrelationID string `json:"CorrelationID"`
}

// BuildEventMetadata creates EventMetadata, leaving CausationID empty for uuid.Nil.
func BuildEventMetadata(messageID uuid.UUID, causationID uuid.UUID, correlationID uuid.UUID) EventMetadata {
	metadata := EventMetadata{
		MessageID:     messageID.String(),
		CorrelationID: correlationID.String(),
	}

	if causationID != uuid.Nil {
		metadata.CausationID = causationID.String()
	}

	return metadata
}

// BuildBatchMetadata creates one EventMetadata per notification of a single command.
// All entries share the causation and correlation ids, each gets its own message id.
func BuildBatchMetadata(count int, causationID uuid.UUID, correlationID uuid.UUID) []EventMetadata {
	metadata := make([]EventMetadata, count)
	for i := range metadata {
		metadata[i] = BuildEventMetadata(uuid.New(), causationID, correlationID)
	}

	return metadata
}

// HasCausation reports whether the notification was caused by a command on a single reservation.
func (m EventMetadata) HasCausation() bool {
	return m.CausationID != ""
}

// EventMetadataFrom decodes the metadata stored with a notification.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	var metadata EventMetadata

	if err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, &metadata); err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return metadata, nil
}
