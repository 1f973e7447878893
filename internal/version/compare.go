package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// CheckConstraint verifies that the running engine version satisfies a
// semver constraint supplied by a configuration (e.g. ">= 1.0.0").
//
// The check is skipped for "main" (development builds) so that local builds
// can run any configuration.
func CheckConstraint(engineVersion, constraint string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")

	if engineVersion == "main" || constraint == "" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err, "invalid engine version %q", engineVersion)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err, "invalid engine version constraint %q", constraint)
	}

	if !c.Check(engineSemver) {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"engine version %s does not satisfy required constraint %q", engineVersion, constraint)
	}

	return nil
}
