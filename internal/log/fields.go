// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldAppID             = "app_id"
	FieldSessionID         = "session_id"
	FieldPreviousSessionID = "previous_session_id"
	FieldSessionIndex      = "session_index"
	FieldInstallationID    = "installation_id"
	FieldRequestID         = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldTopic     = "topic"
	FieldSource    = "source"

	// Lifecycle fields
	FieldLifecycle      = "lifecycle"
	FieldTrigger        = "trigger"
	FieldBackgroundedAt = "backgrounded_at"
	FieldElapsed        = "elapsed"
	FieldTimeout        = "timeout"
	FieldDispatch       = "dispatch"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / network fields
	FieldPath   = "path"
	FieldListen = "listen"
)
