package migration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yndnr/statevault/internal/core/domain"
)

// SchemaVersion is a three-part major.minor.patch schema identifier.
type SchemaVersion struct {
	Major int
	Minor int
	Patch int
}

// ParseSchemaVersion parses "major.minor.patch". A leading "v" is accepted.
func ParseSchemaVersion(s string) (SchemaVersion, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return SchemaVersion{}, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("schema version %q: want major.minor.patch", s))
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return SchemaVersion{}, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("schema version %q: bad component %q", s, p))
		}
		nums[i] = n
	}
	return SchemaVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParseSchemaVersion is like ParseSchemaVersion but panics on error.
// It is meant for package-level constants in integrator code.
func MustParseSchemaVersion(s string) SchemaVersion {
	v, err := ParseSchemaVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the dotted form.
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 ordering v against o.
func (v SchemaVersion) Compare(o SchemaVersion) int {
	switch {
	case v.Major != o.Major:
		return sign(v.Major - o.Major)
	case v.Minor != o.Minor:
		return sign(v.Minor - o.Minor)
	default:
		return sign(v.Patch - o.Patch)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
