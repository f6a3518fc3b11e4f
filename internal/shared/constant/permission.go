package constant

// Casbin objects.
const (
	PermTwoFactorDevices = "twofactor:devices"
	PermDeliveryReceipts = "delivery:receipts"
)

// Casbin actions.
const (
	PermActRead   = "read"
	PermActExport = "export"
)
