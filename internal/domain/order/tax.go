package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxBreakdown is the GST split for one line item. All amounts are rounded
// to 2 decimal places, and CGST+SGST+IGST always equals the rounded total tax.
type TaxBreakdown struct {
	Subtotal   decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	IGST       decimal.Decimal
	Total      decimal.Decimal
	GSTPercent decimal.Decimal
}

var two = decimal.NewFromInt(2)
var hundred = decimal.NewFromInt(100)

// SplitTax computes the CGST/SGST/IGST breakdown for a line item.
//
// Each step rounds to 2 decimal places (half up): the line subtotal first,
// then the total tax on that subtotal, then the intrastate halves. The final
// total is the sum of the rounded parts rather than subtotal*(1+rate), so the
// displayed components always add up exactly.
//
// When seller and buyer are in the same state, or either state is unknown,
// the tax is split into CGST and SGST; an odd paisa goes to SGST. Different,
// known states get the full tax as IGST.
//
// Inputs are assumed validated upstream: quantity positive, price and
// percent non-negative.
func SplitTax(unitPrice decimal.Decimal, quantity int64, gstPercent decimal.Decimal, sellerState, buyerState string) TaxBreakdown {
	subtotal := unitPrice.Mul(decimal.NewFromInt(quantity)).Round(2)

	breakdown := TaxBreakdown{
		Subtotal:   subtotal,
		CGST:       decimal.Zero,
		SGST:       decimal.Zero,
		IGST:       decimal.Zero,
		GSTPercent: gstPercent,
	}

	if gstPercent.IsZero() {
		breakdown.Total = subtotal
		return breakdown
	}

	totalTax := subtotal.Mul(gstPercent).Div(hundred).Round(2)

	if sameTaxRegion(sellerState, buyerState) {
		cgst := totalTax.Div(two).Round(2)
		breakdown.CGST = cgst
		breakdown.SGST = totalTax.Sub(cgst)
	} else {
		breakdown.IGST = totalTax
	}

	breakdown.Total = subtotal.Add(breakdown.CGST).Add(breakdown.SGST).Add(breakdown.IGST)
	return breakdown
}

// sameTaxRegion compares states case- and whitespace-insensitively.
// An empty or unknown state on either side defaults to intrastate, which is
// the conservative split (revenue stays with the seller's state).
func sameTaxRegion(sellerState, buyerState string) bool {
	seller := strings.ToLower(strings.TrimSpace(sellerState))
	buyer := strings.ToLower(strings.TrimSpace(buyerState))
	if seller == "" || buyer == "" {
		return true
	}
	return seller == buyer
}
