// internal/versioning/semver.go
package versioning

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/models"
)

// semver is a parsed major.minor.patch version. Template versions never
// carry pre-release or build suffixes.
type semver struct {
	major, minor, patch int
}

func parseVersion(s string) (semver, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return semver{}, fmt.Errorf("expected major.minor.patch, got %q", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || (len(part) > 1 && part[0] == '0') {
			return semver{}, fmt.Errorf("invalid version component %q in %q", part, s)
		}
		nums[i] = n
	}
	return semver{major: nums[0], minor: nums[1], patch: nums[2]}, nil
}

func (v semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// bump computes the next version for a change type: major resets minor and
// patch, minor resets patch.
func (v semver) bump(changeType models.ChangeType) (semver, error) {
	switch changeType {
	case models.ChangeMajor:
		return semver{major: v.major + 1}, nil
	case models.ChangeMinor:
		return semver{major: v.major, minor: v.minor + 1}, nil
	case models.ChangePatch:
		return semver{major: v.major, minor: v.minor, patch: v.patch + 1}, nil
	default:
		return semver{}, apperrors.NewInvalidChangeTypeError(string(changeType))
	}
}

// less reports strict version ordering.
func (v semver) less(other semver) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}
