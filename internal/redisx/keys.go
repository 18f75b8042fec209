package redisx

import "time"

const (
	// Cached order summary projection: order:summary:{order_id} -> JSON
	KeyOrderSummary = "order:summary:%s"

	// Cached customer existence check: customer:exists:{customer_id} -> "1"/"0"
	KeyCustomerExists = "customer:exists:%s"
)

var (
	TTLOrderSummary   = 5 * time.Minute
	TTLCustomerExists = 10 * time.Minute
)
