package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldExpenseID = "expense_id"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldOwnerID   = "owner_id"
	FieldChatID    = "chat_id"
	FieldMonth     = "month"
	FieldPath      = "path"
	FieldSuccess   = "success"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentBot     = "bot"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)

// Operations defines standard operation names.
const (
	OpRecord   = "record"
	OpDelete   = "delete"
	OpList     = "list"
	OpSum      = "sum"
	OpExport   = "export"
	OpBackup   = "backup"
	OpRemind   = "remind"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
