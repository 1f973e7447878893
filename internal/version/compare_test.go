package version

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

type CompareTestSuite struct {
	suite.Suite
}

func TestCompareSuite(t *testing.T) {
	suite.Run(t, new(CompareTestSuite))
}

func (suite *CompareTestSuite) TestCheckConstraint() {
	tests := []struct {
		name          string
		engineVersion string
		constraint    string
		expectError   bool
	}{
		{
			name:          "satisfied exact",
			engineVersion: "1.0.0",
			constraint:    "= 1.0.0",
			expectError:   false,
		},
		{
			name:          "satisfied range",
			engineVersion: "v1.2.3",
			constraint:    ">= 1.0.0, < 2.0.0",
			expectError:   false,
		},
		{
			name:          "not satisfied",
			engineVersion: "1.0.0",
			constraint:    ">= 2.0.0",
			expectError:   true,
		},
		{
			name:          "dev build skips check",
			engineVersion: "main",
			constraint:    ">= 99.0.0",
			expectError:   false,
		},
		{
			name:          "empty constraint skips check",
			engineVersion: "1.0.0",
			constraint:    "",
			expectError:   false,
		},
		{
			name:          "invalid constraint",
			engineVersion: "1.0.0",
			constraint:    "not-a-constraint",
			expectError:   true,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := CheckConstraint(tt.engineVersion, tt.constraint)
			if tt.expectError {
				suite.Require().Error(err)
				suite.Equal(errors.ErrCodeVersionMismatch, errors.GetCode(err))
			} else {
				suite.NoError(err)
			}
		})
	}
}
