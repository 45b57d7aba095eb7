package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldEntryID         = "entry_id"
	FieldWithdrawalID    = "withdrawal_id"
	FieldDate            = "date"
	FieldMonth           = "month"
	FieldAmountCents     = "amount_cents"
	FieldFrontSafeCents  = "front_safe_cents"
	FieldBackSafeCents   = "back_safe_cents"
	FieldDifferenceCents = "difference_cents"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRecon     = "recon"
	ComponentArchive   = "archive"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)
