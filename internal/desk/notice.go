package desk

// Level classifies a user-facing notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short message for the operator. Text never carries raw
// transport errors.
type Notice struct {
	Level   Level
	Text    string
	OrderID int64
}

// Notifier receives notices. It may be called from poller goroutines.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discard struct{}

func (discard) Notify(Notice) {}

const (
	msgProcessed      = "Invoice processed successfully!"
	msgProcessingFail = "Processing failed: %s"
	msgUnknownError   = "Unknown error"
	msgTimeout        = "Processing is taking longer than expected. Please refresh to check status."
	msgUpdated        = "Order updated successfully!"
	msgUpdateFailed   = "Failed to update order: %s"
	msgDeleted        = "Order deleted successfully!"
	msgDeleteFailed   = "Failed to delete order: %s"
	msgFetchFailed    = "Failed to fetch orders: %s. Is the backend running at %s?"
	msgUnreachable    = "Cannot connect to backend at %s. Please ensure the backend service is running."
	msgReloadFailed   = "Order %d could not be reloaded: %s"
)
