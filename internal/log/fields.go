package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldBackend    = "backend"
	FieldPath       = "path"
	FieldCount      = "count"
	FieldRecordID   = "record_id"
	FieldShop       = "shop"
	FieldItem       = "item"
	FieldQuantity   = "quantity"
	FieldEvent      = "event"
	FieldListener   = "listener"
	FieldDurationMs = "duration_ms"
	FieldSheetRange = "sheet_range"
	FieldExchange   = "exchange"
	FieldRoutingKey = "routing_key"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStorage = "storage"
	ComponentService = "service"
	ComponentAMQP    = "amqp"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpLoad       = "load"
	OpAppend     = "append"
	OpUpdate     = "update"
	OpDeleteLast = "delete_last"
	OpClearAll   = "clear_all"
	OpNotify     = "notify"
	OpExport     = "export"
	OpMirror     = "mirror"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation       = "validation_error"
	ErrorTypeInsufficientData = "insufficient_data_error"
	ErrorTypeNotFound         = "not_found_error"
	ErrorTypeStoreIO          = "store_io_error"
	ErrorTypeConfiguration    = "configuration_error"
	ErrorTypeNetwork          = "network_error"
	ErrorTypeInternal         = "internal_error"
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

// WithErrorType adds error type field
func (f LogFields) WithErrorType(errType string) LogFields {
	f[FieldErrorType] = errType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds record-related fields
func (f LogFields) WithRecord(id, shop, item string, qty int) LogFields {
	f[FieldRecordID] = id
	f[FieldShop] = shop
	f[FieldItem] = item
	f[FieldQuantity] = qty
	return f
}

// WithCount adds count field
func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
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
