package inventory

// QuantityState is the coarse stock level shown by the catalog.
type QuantityState string

const (
	QuantityEnded  QuantityState = "ENDED"
	QuantityFew    QuantityState = "FEW"
	QuantityEnough QuantityState = "ENOUGH"
	QuantityMany   QuantityState = "MANY"
)

const (
	LimitCount  = 5
	EnoughCount = 20
)

// DeriveQuantityState maps an available quantity to its catalog state. Negative input is
// treated as ENDED.
func DeriveQuantityState(quantity int) QuantityState {
	switch {
	case quantity <= 0:
		return QuantityEnded
	case quantity < LimitCount:
		return QuantityFew
	case quantity <= EnoughCount:
		return QuantityEnough
	default:
		return QuantityMany
	}
}
