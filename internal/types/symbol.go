package types

// Symbol is a tradeable instrument the agent watches. TradeSize caps the
// share count of a single buy order.
type Symbol struct {
	Symbol    string  `yaml:"symbol" json:"symbol" validate:"required"`
	Active    bool    `yaml:"active" json:"active"`
	TradeSize float64 `yaml:"trade_size" json:"trade_size" validate:"gte=0"`
}
