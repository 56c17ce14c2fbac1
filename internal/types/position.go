package types

import "time"

// Position is a broker-reported open position.
type Position struct {
	Symbol         string    `yaml:"symbol" json:"symbol" validate:"required"`
	Exchange       string    `yaml:"exchange" json:"exchange"`
	Qty            float64   `yaml:"qty" json:"qty"`
	AvgEntryPrice  float64   `yaml:"avg_entry_price" json:"avg_entry_price"`
	MarketValue    float64   `yaml:"market_value" json:"market_value"`
	CostBasis      float64   `yaml:"cost_basis" json:"cost_basis"`
	CurrentPrice   float64   `yaml:"current_price" json:"current_price"`
	UnrealizedPL   float64   `yaml:"unrealized_pl" json:"unrealized_pl"`
	UnrealizedPLPC float64   `yaml:"unrealized_plpc" json:"unrealized_plpc"`
	RecordedAt     time.Time `yaml:"recorded_at" json:"recorded_at"`
}

// TransactionStatus is the per-symbol in-flight marker. A row means a buy is
// in flight or shares are held; shares start at zero when the buy is opened
// and track the broker-reported quantity afterwards.
type TransactionStatus struct {
	Symbol    string    `yaml:"symbol" json:"symbol" validate:"required"`
	Shares    float64   `yaml:"shares" json:"shares"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}
