package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	log, err := NewLogger()

	suite.Require().NoError(err)
	suite.Require().NotNil(log)
	suite.NotNil(log.Logger)
}

func (suite *LoggerTestSuite) TestNopLoggerIsSafe() {
	log := NewNopLogger()

	log.Info("ignored", zap.String("key", "value"))
	suite.NoError(log.Sync())
}

func (suite *LoggerTestSuite) TestWithReturnsChild() {
	log := NewNopLogger()
	child := log.With(zap.String("component", "backtest"))

	suite.NotNil(child)
	suite.NotSame(log, child)
}
