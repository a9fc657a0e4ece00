package enum

// --- Roles (carried in JWT claims; values match field audience strings) ---

const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

// --- Order lifecycle (values travel on the wire, lowercase) ---

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PriceApprovalPending  = "pending"
	PriceApprovalApproved = "approved"
	PriceApprovalRejected = "rejected"
)

// --- Change-bus event types ---

const (
	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderDeleted   = "order.deleted"
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)
