package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldUserID         = "user_id"
	FieldSubscriptionID = "subscription_id"
	FieldSubscription   = "subscription_name"
	FieldAmountCents    = "amount_cents"
	FieldFrequency      = "frequency"
	FieldCategory       = "category"
	FieldDueOn          = "due_on"
	FieldQueue          = "queue"
	FieldSheetsRef      = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentAuth         = "auth"
	ComponentSubscription = "subscription"
	ComponentDashboard    = "dashboard"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentReminder     = "reminder"
	ComponentSheets       = "sheets"
	ComponentCache        = "cache"
	ComponentSecurity     = "security"
	ComponentRateLimit    = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpRemind   = "remind"
	OpValidate = "validate"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
