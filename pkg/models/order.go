package models

// OrderStatus is the user-controlled business lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known business statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// ProcessingStatus is the server-driven extraction lifecycle. It is
// independent of OrderStatus.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// Settled reports whether extraction has finished one way or the other.
func (s ProcessingStatus) Settled() bool {
	return s == ProcessingCompleted || s == ProcessingFailed
}

type Order struct {
	// Identity
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"` // assigned by the server, never edited

	// Invoice metadata
	InvoiceNumber *string `json:"invoice_number"`
	InvoiceDate   *string `json:"invoice_date"` // YYYY-MM-DD
	DueDate       *string `json:"due_date"`     // YYYY-MM-DD

	// Customer
	CustomerName    *string `json:"customer_name"`
	CustomerAddress *string `json:"customer_address"`
	CustomerEmail   *string `json:"customer_email"`
	CustomerPhone   *string `json:"customer_phone"`

	// Derived totals
	Subtotal *float64 `json:"subtotal"`
	Tax      *float64 `json:"tax"`
	Total    *float64 `json:"total"`
	Currency string   `json:"currency"`

	// Lifecycle
	Status           OrderStatus       `json:"status"`
	ProcessingStatus *ProcessingStatus `json:"processing_status"`
	ErrorMessage     *string           `json:"error_message"`
	FilePath         *string           `json:"file_path,omitempty"`

	CreatedAt *Timestamp `json:"created_at"`
	UpdatedAt *Timestamp `json:"updated_at"`

	LineItems []LineItem `json:"line_items"`
}

type LineItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	LineNumber  *int    `json:"line_number"`
	ProductCode *string `json:"product_code"`
	ProductName *string `json:"product_name"`
	Description *string `json:"description"`

	Quantity  *float64 `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	Discount  float64  `json:"discount"`   // percent, 0-100
	LineTotal *float64 `json:"line_total"` // derived, never hand-edited
}

// Clone returns a deep copy so that snapshots never alias each other.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.InvoiceNumber = cloneString(o.InvoiceNumber)
	c.InvoiceDate = cloneString(o.InvoiceDate)
	c.DueDate = cloneString(o.DueDate)
	c.CustomerName = cloneString(o.CustomerName)
	c.CustomerAddress = cloneString(o.CustomerAddress)
	c.CustomerEmail = cloneString(o.CustomerEmail)
	c.CustomerPhone = cloneString(o.CustomerPhone)
	c.Subtotal = cloneFloat(o.Subtotal)
	c.Tax = cloneFloat(o.Tax)
	c.Total = cloneFloat(o.Total)
	c.ErrorMessage = cloneString(o.ErrorMessage)
	c.FilePath = cloneString(o.FilePath)
	if o.ProcessingStatus != nil {
		ps := *o.ProcessingStatus
		c.ProcessingStatus = &ps
	}
	if o.CreatedAt != nil {
		t := *o.CreatedAt
		c.CreatedAt = &t
	}
	if o.UpdatedAt != nil {
		t := *o.UpdatedAt
		c.UpdatedAt = &t
	}
	if o.LineItems != nil {
		c.LineItems = make([]LineItem, len(o.LineItems))
		for i, item := range o.LineItems {
			c.LineItems[i] = item.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of the line item.
func (li LineItem) Clone() LineItem {
	c := li
	if li.LineNumber != nil {
		n := *li.LineNumber
		c.LineNumber = &n
	}
	c.ProductCode = cloneString(li.ProductCode)
	c.ProductName = cloneString(li.ProductName)
	c.Description = cloneString(li.Description)
	c.Quantity = cloneFloat(li.Quantity)
	c.UnitPrice = cloneFloat(li.UnitPrice)
	c.LineTotal = cloneFloat(li.LineTotal)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// String and Float return pointers to literals; handy for building edits.
func String(s string) *string { return &s }

func Float(f float64) *float64 { return &f }

func Int(i int) *int { return &i }

// Stats is the aggregate summary returned by the order store.
type Stats struct {
	TotalOrders       int     `json:"total_orders"`
	TotalValue        float64 `json:"total_value"`
	AverageOrderValue float64 `json:"average_order_value"`
}
