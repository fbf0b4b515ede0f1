package models

// PaymentPlan decides how much of an order is paid before delivery
type PaymentPlan string

// PaymentPlan constants
const (
	// PaymentPlanFull pays the whole total upfront
	PaymentPlanFull PaymentPlan = "full"
	// PaymentPlanDelivery pays only the delivery fee upfront, the rest on delivery
	PaymentPlanDelivery PaymentPlan = "delivery"
)

func (p PaymentPlan) Valid() bool {
	return p == PaymentPlanFull || p == PaymentPlanDelivery
}

// PaymentMethod is how the upfront amount is paid. Payment itself happens
// off-platform; proof is sent through support chat.
type PaymentMethod string

// PaymentMethod constants
const (
	PaymentMethodMomo PaymentMethod = "momo"
	PaymentMethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodMomo || m == PaymentMethodCash
}
