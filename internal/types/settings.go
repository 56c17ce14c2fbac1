package types

import "time"

// Settings are the runtime trading toggles. Rows are append-only; the current
// settings are the most recently recorded row.
type Settings struct {
	BuyEnabled    bool      `yaml:"buy_enabled" json:"buy_enabled"`
	SellEnabled   bool      `yaml:"sell_enabled" json:"sell_enabled"`
	CashReserve   float64   `yaml:"cash_reserve" json:"cash_reserve"`
	MaxOrderValue float64   `yaml:"max_order_value" json:"max_order_value"`
	RecordedAt    time.Time `yaml:"recorded_at" json:"recorded_at"`
}

// DefaultSettings is the row seeded when the settings table is empty.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		BuyEnabled:    true,
		SellEnabled:   true,
		CashReserve:   0,
		MaxOrderValue: 0,
		RecordedAt:    now,
	}
}
