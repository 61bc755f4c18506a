package order

// Status is the order lifecycle. Success states are ranked and only ever move forward; a
// signal for an earlier success state is stale and ignored. Failure states are terminal.
type Status string

const (
	StatusNew             Status = "NEW"
	StatusAssembled       Status = "ASSEMBLED"
	StatusOnPayment       Status = "ON_PAYMENT"
	StatusPaid            Status = "PAID"
	StatusOnDelivery      Status = "ON_DELIVERY"
	StatusDelivered       Status = "DELIVERED"
	StatusProductReturned Status = "PRODUCT_RETURNED"

	StatusAssemblyFailed Status = "ASSEMBLY_FAILED"
	StatusPaymentFailed  Status = "PAYMENT_FAILED"
	StatusDeliveryFailed Status = "DELIVERY_FAILED"
)

var rank = map[Status]int{
	StatusNew:             0,
	StatusAssembled:       1,
	StatusOnPayment:       2,
	StatusPaid:            3,
	StatusOnDelivery:      4,
	StatusDelivered:       5,
	StatusProductReturned: 6,
}

func (s Status) Failed() bool {
	return s == StatusAssemblyFailed || s == StatusPaymentFailed || s == StatusDeliveryFailed
}

func (s Status) Terminal() bool {
	return s.Failed() || s == StatusProductReturned
}

// next reports whether moving from s to target changes anything.
func (s Status) next(target Status) (bool, error) {
	if s == target {
		return false, nil
	}
	if s.Terminal() {
		return false, ErrInvalidStateTransition
	}
	switch target {
	case StatusAssemblyFailed:
		if s != StatusNew {
			return false, ErrInvalidStateTransition
		}
		return true, nil
	case StatusPaymentFailed, StatusDeliveryFailed:
		if rank[s] >= rank[StatusDelivered] {
			return false, ErrInvalidStateTransition
		}
		return true, nil
	case StatusProductReturned:
		if s != StatusDelivered {
			return false, ErrInvalidStateTransition
		}
		return true, nil
	}
	to, ok := rank[target]
	if !ok {
		return false, ErrInvalidStateTransition
	}
	return to > rank[s], nil
}
