package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldTripID      = "trip_id"
	FieldTripVersion = "trip_version"
	FieldParticipant = "participant"
	FieldAmountCents = "amount_cents"
	FieldTotalCents  = "total_cents"
	FieldTransfers   = "transfers"
	FieldResidual    = "residual_cents"
	FieldFormat      = "format"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentTrips    = "trips"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentReport   = "report"
	ComponentBackend  = "backend"
	ComponentTemplate = "template"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpRecord   = "record_expense"
	OpReset    = "reset"
	OpSettle   = "settle"
	OpExport   = "export"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTrip adds trip identity fields
func (f LogFields) WithTrip(id string, version int64) LogFields {
	f[FieldTripID] = id
	f[FieldTripVersion] = version
	return f
}

// WithExpense adds the fields of a recorded expense
func (f LogFields) WithExpense(participant string, amountCents int64) LogFields {
	f[FieldParticipant] = participant
	f[FieldAmountCents] = amountCents
	return f
}

// WithSettlement adds settlement summary fields
func (f LogFields) WithSettlement(totalCents int64, transfers int, residualCents int64) LogFields {
	f[FieldTotalCents] = totalCents
	f[FieldTransfers] = transfers
	f[FieldResidual] = residualCents
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
