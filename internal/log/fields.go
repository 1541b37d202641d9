// SPDX-License-Identifier: EUPL-1.2

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldRunID      = "run_id"
	FieldScenarioID = "scenario_id"
	FieldSavedID    = "saved_scenario_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldAttempt   = "attempt"

	// Engine fields
	FieldEngineURL = "engine_url"
	FieldAreaCode  = "area_code"
	FieldEndYear   = "end_year"
	FieldCurveKey  = "curve_key"
	FieldCurveKind = "curve_kind"
	FieldInputKey  = "input_key"
	FieldGquery    = "gquery"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"

	// HTTP fields
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
)
