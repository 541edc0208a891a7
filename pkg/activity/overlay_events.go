package activity

import (
	"strings"
	"time"
)

// Verbs emitted for overlay changes.
const (
	VerbKeyAdded        = "overlay.key.added"
	VerbKeyRemoved      = "overlay.key.removed"
	VerbKeyUpdated      = "overlay.key.updated"
	VerbOverrideUpdated = "overlay.override.updated"
	VerbOverrideRemoved = "overlay.override.removed"
)

// Object types attached to overlay events.
const (
	ObjectTypeKey      = "overlay.key"
	ObjectTypeOverride = "overlay.override"
)

// OverlayEventInput describes the common fields for overlay change events.
type OverlayEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Key            string
	ViewID         string
	OldValue       any
	NewValue       any
	OccurredAt     time.Time
}

// BuildKeyAddedEvent describes a key entering the base store.
func BuildKeyAddedEvent(input OverlayEventInput) Event {
	return buildOverlayEvent(VerbKeyAdded, ObjectTypeKey, input)
}

// BuildKeyRemovedEvent describes a key (and all of its overrides) leaving the
// base store.
func BuildKeyRemovedEvent(input OverlayEventInput) Event {
	return buildOverlayEvent(VerbKeyRemoved, ObjectTypeKey, input)
}

// BuildKeyUpdatedEvent describes a base value change.
func BuildKeyUpdatedEvent(input OverlayEventInput) Event {
	return buildOverlayEvent(VerbKeyUpdated, ObjectTypeKey, input)
}

// BuildOverrideUpdatedEvent describes a view setting its override.
func BuildOverrideUpdatedEvent(input OverlayEventInput) Event {
	return buildOverlayEvent(VerbOverrideUpdated, ObjectTypeOverride, input)
}

// BuildOverrideRemovedEvent describes a view dropping its override.
func BuildOverrideRemovedEvent(input OverlayEventInput) Event {
	return buildOverlayEvent(VerbOverrideRemoved, ObjectTypeOverride, input)
}

func buildOverlayEvent(verb, objectType string, input OverlayEventInput) Event {
	metadata := cloneMap(input.Metadata)
	key := strings.TrimSpace(input.Key)
	viewID := strings.TrimSpace(input.ViewID)
	if key != "" {
		metadata = ensureMetadata(metadata)
		metadata["key"] = key
	}
	if viewID != "" {
		metadata = ensureMetadata(metadata)
		metadata["view_id"] = viewID
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	// overrides are addressed per view so two views touching the same key
	// produce distinct object ids
	objectID := key
	if objectType == ObjectTypeOverride && viewID != "" {
		objectID = viewID + "/" + key
	}
	if objectID == "" {
		objectID = objectType
	}

	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
