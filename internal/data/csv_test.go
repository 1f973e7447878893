package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

type CSVLoaderTestSuite struct {
	suite.Suite
	dir string
}

func TestCSVLoaderSuite(t *testing.T) {
	suite.Run(t, new(CSVLoaderTestSuite))
}

func (suite *CSVLoaderTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *CSVLoaderTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *CSVLoaderTestSuite) TestLoadsChronologicalBars() {
	path := suite.writeFile("bars.csv", `time,open,high,low,close,volume
2024-01-01T00:01:00Z,101,102,100,101.5,20
2024-01-01T00:00:00Z,100,101,99,100.5,10
`)

	bars, err := LoadCSV(path)

	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)
	// Out-of-order rows are sorted on load.
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	suite.Equal(100.5, bars[0].Close)
	suite.Equal(101.5, bars[1].Close)
	suite.Equal(20.0, bars[1].Volume)
}

func (suite *CSVLoaderTestSuite) TestAcceptsSpaceSeparatedTimestamps() {
	path := suite.writeFile("bars.csv", `time,open,high,low,close,volume
2024-01-01 00:00:00,100,101,99,100.5,10
`)

	bars, err := LoadCSV(path)

	suite.Require().NoError(err)
	suite.Require().Len(bars, 1)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
}

func (suite *CSVLoaderTestSuite) TestMissingFile() {
	_, err := LoadCSV(filepath.Join(suite.dir, "absent.csv"))

	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoData))
}

func (suite *CSVLoaderTestSuite) TestHeaderOnlyFile() {
	path := suite.writeFile("empty.csv", "time,open,high,low,close,volume\n")

	_, err := LoadCSV(path)

	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoData))
}

func (suite *CSVLoaderTestSuite) TestBadTimestamp() {
	path := suite.writeFile("bad.csv", `time,open,high,low,close,volume
yesterday,100,101,99,100.5,10
`)

	_, err := LoadCSV(path)

	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMalformedData))
}
