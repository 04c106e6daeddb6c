package model

import "time"

// EventKind names an audit notification sent to the logger channel.
type EventKind string

const (
	EventAccountCreated     EventKind = "account_created"
	EventAccountDeleted     EventKind = "account_deleted"
	EventAccountSuspended   EventKind = "account_suspended"
	EventAccountActivated   EventKind = "account_activated"
	EventUsageReset         EventKind = "usage_reset"
	EventSubRevoked         EventKind = "sub_revoked"
	EventDataLimitChanged   EventKind = "data_limit_changed"
	EventExpiryChanged      EventKind = "expiry_changed"
	EventInboundsChanged    EventKind = "inbounds_changed"
	EventNoteChanged        EventKind = "note_changed"
	EventAccountCharged     EventKind = "account_charged"
	EventBulkDeleted        EventKind = "bulk_deleted"
	EventBulkDataChanged    EventKind = "bulk_data_changed"
	EventBulkTimeChanged    EventKind = "bulk_time_changed"
	EventBulkInboundChanged EventKind = "bulk_inbound_changed"
	EventCoreRestarted      EventKind = "core_restarted"
)

// AuditEvent is a best-effort notification about an admin action.
type AuditEvent struct {
	Kind       EventKind
	Username   string
	OperatorID int64
	Operator   string
	Before     string
	After      string
	Count      int
	Attachment *Attachment
	At         time.Time
}

// Attachment is a document sent alongside an event.
type Attachment struct {
	Name string
	Data []byte
}
