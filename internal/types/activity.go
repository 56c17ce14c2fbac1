package types

import "time"

type ActivityType string

const (
	ActivityTypeFill ActivityType = "FILL"
)

// Activity is a broker account activity, primarily order fills.
type Activity struct {
	ID              string       `yaml:"id" json:"id" validate:"required"`
	ActivityType    ActivityType `yaml:"activity_type" json:"activity_type"`
	TransactionTime time.Time    `yaml:"transaction_time" json:"transaction_time"`
	Type            string       `yaml:"type" json:"type"`
	Symbol          string       `yaml:"symbol" json:"symbol"`
	Side            string       `yaml:"side" json:"side"`
	Qty             float64      `yaml:"qty" json:"qty"`
	Price           float64      `yaml:"price" json:"price"`
	LeavesQty       float64      `yaml:"leaves_qty" json:"leaves_qty"`
	CumQty          float64      `yaml:"cum_qty" json:"cum_qty"`
	OrderID         string       `yaml:"order_id" json:"order_id"`
}
