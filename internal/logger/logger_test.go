package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger("info")
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
}

func (suite *LoggerTestSuite) TestNewLoggerBadLevelFallsBack() {
	logger, err := NewLogger("chatty")
	suite.NoError(err)
	suite.NotNil(logger)
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	err := logger.Sync()
	suite.NoError(err)
}

func (suite *LoggerTestSuite) TestNamed() {
	logger := NewTestLogger()
	named := logger.Named("stream")
	suite.NotNil(named)
	suite.NotNil(named.Logger)
}

func (suite *LoggerTestSuite) TestLoggerLogging() {
	logger := NewTestLogger()

	// should not panic
	logger.Info("test info message")
	logger.Debug("test debug message")
	logger.Warn("test warn message")
	logger.Error("test error message")
}
