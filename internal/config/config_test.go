package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/meridian-trading/meridian/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const validYAML = `
database: trading.db
alpaca:
  key_id: test-key
  secret_key: test-secret
  base_url: https://paper-api.alpaca.markets
finnhub:
  token: test-token
symbols:
  - AAPL
  - MSFT
`

func (suite *ConfigTestSuite) TestParseValid() {
	config, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)
	suite.Equal("trading.db", config.Database)
	suite.Equal("test-key", config.Alpaca.KeyID)
	suite.Equal([]string{"AAPL", "MSFT"}, config.Symbols)
}

func (suite *ConfigTestSuite) TestParseAppliesDefaults() {
	config, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)
	suite.Equal(3000*time.Millisecond, config.Poller.OpenInterval)
	suite.Equal(10000*time.Millisecond, config.Poller.ClosedInterval)
	suite.True(config.Feeds.AlpacaMarketData)
	suite.True(config.Feeds.Finnhub)
	suite.Equal("wss://ws.finnhub.io", config.Finnhub.URL)
}

func (suite *ConfigTestSuite) TestParseUppercasesSymbols() {
	yaml := `
database: trading.db
alpaca:
  key_id: k
  secret_key: s
  base_url: https://paper-api.alpaca.markets
finnhub:
  token: t
symbols:
  - aapl
  - Msft
  - TSLA
`
	config, err := Parse([]byte(yaml))
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT", "TSLA"}, config.Symbols)
}

func (suite *ConfigTestSuite) TestParseMissingCredentials() {
	yaml := `
database: trading.db
symbols:
  - AAPL
`
	_, err := Parse([]byte(yaml))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestParseMissingSymbols() {
	yaml := `
database: trading.db
alpaca:
  key_id: k
  secret_key: s
finnhub:
  token: t
`
	_, err := Parse([]byte(yaml))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestParseInvalidYAML() {
	_, err := Parse([]byte("database: [unclosed"))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestEnvIntervalOverride() {
	suite.T().Setenv(EnvIntervalMillis, "1500")

	config, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)
	suite.Equal(1500*time.Millisecond, config.Poller.OpenInterval)
}

func (suite *ConfigTestSuite) TestEnvIntervalOverrideIgnoresGarbage() {
	suite.T().Setenv(EnvIntervalMillis, "not-a-number")

	config, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)
	suite.Equal(3000*time.Millisecond, config.Poller.OpenInterval)
}

func (suite *ConfigTestSuite) TestEnvCredentialOverride() {
	suite.T().Setenv(EnvAPIKeyID, "env-key")
	suite.T().Setenv(EnvFinnhubToken, "env-token")

	config, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)
	suite.Equal("env-key", config.Alpaca.KeyID)
	suite.Equal("env-token", config.Finnhub.Token)
}

func (suite *ConfigTestSuite) TestEnvFeedToggle() {
	suite.T().Setenv(EnvFinnhubEnabled, "false")

	config, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)
	suite.False(config.Feeds.Finnhub)
	suite.True(config.Feeds.AlpacaMarketData)
}
