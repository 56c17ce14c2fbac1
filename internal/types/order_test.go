package types

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/meridian-trading/meridian/pkg/errors"
)

type OrderTestSuite struct {
	suite.Suite
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func (suite *OrderTestSuite) TestNewOrderRequestDefaults() {
	req := NewOrderRequest("AAPL", OrderSideBuy, 10)
	suite.Equal("AAPL", req.Symbol)
	suite.Equal(OrderSideBuy, req.Side)
	suite.Equal(OrderTypeMarket, req.Type)
	suite.Equal(TimeInForceDay, req.TimeInForce)
	suite.NotEmpty(req.ClientOrderID)
	suite.NoError(req.Validate())
}

func (suite *OrderTestSuite) TestUniqueClientOrderIDs() {
	a := NewOrderRequest("AAPL", OrderSideBuy, 1)
	b := NewOrderRequest("AAPL", OrderSideBuy, 1)
	suite.NotEqual(a.ClientOrderID, b.ClientOrderID)
}

func (suite *OrderTestSuite) TestValidateRejectsZeroQty() {
	req := NewOrderRequest("AAPL", OrderSideBuy, 0)
	err := req.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))
}

func (suite *OrderTestSuite) TestValidateRejectsMissingSymbol() {
	req := NewOrderRequest("", OrderSideSell, 5)
	suite.Error(req.Validate())
}

func (suite *OrderTestSuite) TestValidateLimitRequiresPrice() {
	req := NewOrderRequest("MSFT", OrderSideBuy, 5)
	req.Type = OrderTypeLimit
	err := req.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))

	req.LimitPrice = optional.Some(412.50)
	suite.NoError(req.Validate())
}

func (suite *OrderTestSuite) TestValidateRejectsBadSide() {
	req := NewOrderRequest("MSFT", OrderSide("hold"), 5)
	suite.Error(req.Validate())
}
