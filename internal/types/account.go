package types

import "time"

type AccountStatus string

const (
	AccountStatusActive     AccountStatus = "ACTIVE"
	AccountStatusRestricted AccountStatus = "ACCOUNT_UPDATED"
)

// Account is a snapshot of the trading account as reported by the broker.
type Account struct {
	ID                string        `yaml:"id" json:"id"`
	AccountNumber     string        `yaml:"account_number" json:"account_number"`
	Status            AccountStatus `yaml:"status" json:"status"`
	Currency          string        `yaml:"currency" json:"currency"`
	Cash              float64       `yaml:"cash" json:"cash"`
	PortfolioValue    float64       `yaml:"portfolio_value" json:"portfolio_value"`
	Equity            float64       `yaml:"equity" json:"equity"`
	LastEquity        float64       `yaml:"last_equity" json:"last_equity"`
	BuyingPower       float64       `yaml:"buying_power" json:"buying_power"`
	DaytradeCount     int64         `yaml:"daytrade_count" json:"daytrade_count"`
	PatternDayTrader  bool          `yaml:"pattern_day_trader" json:"pattern_day_trader"`
	TradingBlocked    bool          `yaml:"trading_blocked" json:"trading_blocked"`
	TransfersBlocked  bool          `yaml:"transfers_blocked" json:"transfers_blocked"`
	AccountBlocked    bool          `yaml:"account_blocked" json:"account_blocked"`
	ShortingEnabled   bool          `yaml:"shorting_enabled" json:"shorting_enabled"`
	InitialMargin     float64       `yaml:"initial_margin" json:"initial_margin"`
	MaintenanceMargin float64       `yaml:"maintenance_margin" json:"maintenance_margin"`
	CreatedAt         time.Time     `yaml:"created_at" json:"created_at"`
	RecordedAt        time.Time     `yaml:"recorded_at" json:"recorded_at"`
}

// MaxBuyEstimate is the cash-derived sizing bound for a buy order.
type MaxBuyEstimate struct {
	Symbol        string  `yaml:"symbol" json:"symbol"`
	Price         float64 `yaml:"price" json:"price"`
	CashAvailable float64 `yaml:"cash_available" json:"cash_available"`
	QtyPossible   float64 `yaml:"qty_possible" json:"qty_possible"`
}
