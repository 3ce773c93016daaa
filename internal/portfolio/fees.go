package portfolio

import "github.com/deltree-y/LazyBull-sub000/internal/config"

// FeeModel computes per-trade costs: commission with a minimum, sell-only
// stamp tax, and an optional per-side slippage charge.
type FeeModel struct {
	cfg config.FeeConfig
}

func NewFeeModel(cfg config.FeeConfig) FeeModel {
	return FeeModel{cfg: cfg}
}

func (f FeeModel) commission(gross float64) float64 {
	c := gross * f.cfg.CommissionRate
	if c < f.cfg.MinCommission {
		c = f.cfg.MinCommission
	}
	return c
}

// BuyFees returns commission, slippage and their total for a buy of gross
// value.
func (f FeeModel) BuyFees(gross float64) (commission, slippage, total float64) {
	commission = f.commission(gross)
	slippage = gross * f.cfg.SlippageRate
	return commission, slippage, commission + slippage
}

// SellFees returns commission, stamp tax, slippage and their total for a sell
// of gross value.
func (f FeeModel) SellFees(gross float64) (commission, stampTax, slippage, total float64) {
	commission = f.commission(gross)
	stampTax = gross * f.cfg.StampTaxRate
	slippage = gross * f.cfg.SlippageRate
	return commission, stampTax, slippage, commission + stampTax + slippage
}
