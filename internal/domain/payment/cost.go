package payment

import "github.com/shopspring/decimal"

// VATRate is applied to the product total.
var VATRate = decimal.RequireFromString("0.1")

// Product is the catalog view needed for pricing.
type Product struct {
	ID    string
	Price decimal.Decimal
}

type Totals struct {
	Product  decimal.Decimal
	VAT      decimal.Decimal
	Delivery decimal.Decimal
	Total    decimal.Decimal
}

// ProductTotal sums price*quantity over the order. Every ordered product must be priced.
func ProductTotal(quantities map[string]int, catalog map[string]Product) (decimal.Decimal, error) {
	if len(quantities) == 0 {
		return decimal.Zero, ErrNoProducts
	}
	total := decimal.Zero
	for id, qty := range quantities {
		p, ok := catalog[id]
		if !ok {
			return decimal.Zero, ErrIncompleteOrderData
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total, nil
}

// Compute returns product total, VAT and the grand total including delivery.
func Compute(quantities map[string]int, catalog map[string]Product, delivery decimal.Decimal) (Totals, error) {
	product, err := ProductTotal(quantities, catalog)
	if err != nil {
		return Totals{}, err
	}
	return TotalsFor(product, delivery), nil
}

func TotalsFor(product, delivery decimal.Decimal) Totals {
	vat := product.Mul(VATRate)
	return Totals{
		Product:  product,
		VAT:      vat,
		Delivery: delivery,
		Total:    product.Add(vat).Add(delivery),
	}
}
