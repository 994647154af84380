// internal/services/royalty_service.go
package services

import (
	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/models"
)

// RoyaltyCalculator computes the split of a gross sale price into VAT,
// processor fee, platform commission and seller earnings. It is a pure
// function over its inputs: no I/O, deterministic, and re-run verbatim during
// fallback reconciliation, where it must reproduce the webhook-time split.
//
// All arithmetic is int64 minor units; rates are integer basis points.
type RoyaltyCalculator struct {
	vatRatesBps map[string]int64
	feeBps      int64
	feeFixed    int64
}

type RoyaltyInput struct {
	PriceCents     int64
	Currency       string
	BuyerCountry   string
	RoyaltyRateBps int64
	SellerTier     models.TierName
}

type RoyaltyBreakdown struct {
	OriginalPriceCents      int64           `json:"original_price_cents"`
	VATCents                int64           `json:"vat_cents"`
	TransactionFeeCents     int64           `json:"transaction_fee_cents"`
	NetPriceCents           int64           `json:"net_price_cents"`
	PlatformCommissionCents int64           `json:"platform_commission_cents"`
	SellerEarningsCents     int64           `json:"seller_earnings_cents"`
	RoyaltyRateBps          int64           `json:"royalty_rate_bps"`
	SellerTier              models.TierName `json:"seller_tier"`
}

func NewRoyaltyCalculator(cfg config.RoyaltyConfig) *RoyaltyCalculator {
	return &RoyaltyCalculator{
		vatRatesBps: cfg.VATRatesBps,
		feeBps:      cfg.TransactionFeeBps,
		feeFixed:    cfg.TransactionFeeFixedCents,
	}
}

const bpsScale = 10000

// roundHalfUpDiv divides non-negative n by positive d, rounding half up.
func roundHalfUpDiv(n, d int64) int64 {
	return (n + d/2) / d
}

// mulBps applies a basis-point rate to an amount with half-up rounding.
func mulBps(amount, bps int64) int64 {
	return roundHalfUpDiv(amount*bps, bpsScale)
}

func (c *RoyaltyCalculator) Calculate(in RoyaltyInput) (*RoyaltyBreakdown, error) {
	if in.PriceCents < 0 {
		return nil, newValidationError("price", "must not be negative")
	}
	if in.RoyaltyRateBps < 0 || in.RoyaltyRateBps > bpsScale {
		return nil, newValidationError("royalty_rate", "must be between 0 and 10000 basis points")
	}

	breakdown := &RoyaltyBreakdown{
		OriginalPriceCents: in.PriceCents,
		RoyaltyRateBps:     in.RoyaltyRateBps,
		SellerTier:         in.SellerTier,
	}

	if in.PriceCents == 0 {
		return breakdown, nil
	}

	// VAT is included in the gross price for buyers in VAT jurisdictions:
	// vat = price * r / (1 + r), in basis points.
	if rate, ok := c.vatRatesBps[in.BuyerCountry]; ok && rate > 0 {
		breakdown.VATCents = roundHalfUpDiv(in.PriceCents*rate, bpsScale+rate)
	}

	// Processor fee: percentage of the gross price plus a fixed component,
	// clamped so the net price never goes negative on very small sales.
	fee := mulBps(in.PriceCents, c.feeBps) + c.feeFixed
	if max := in.PriceCents - breakdown.VATCents; fee > max {
		fee = max
	}
	breakdown.TransactionFeeCents = fee

	breakdown.NetPriceCents = in.PriceCents - breakdown.VATCents - breakdown.TransactionFeeCents
	breakdown.SellerEarningsCents = mulBps(breakdown.NetPriceCents, in.RoyaltyRateBps)
	// Commission absorbs the rounding remainder so the components always sum
	// to the charged price exactly.
	breakdown.PlatformCommissionCents = breakdown.NetPriceCents - breakdown.SellerEarningsCents

	sum := breakdown.VATCents + breakdown.TransactionFeeCents +
		breakdown.PlatformCommissionCents + breakdown.SellerEarningsCents
	if sum != in.PriceCents {
		return nil, newIntegrityError("royalty components sum to %d, price is %d", sum, in.PriceCents)
	}

	return breakdown, nil
}
