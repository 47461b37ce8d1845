// Package version stamps the allocator engine with a semantic version so
// diagnostic snapshots and the harness binaries can report what they're
// running without guessing from a build timestamp.
package version

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"
)

// EngineVersion is the semantic version of the allocator engine itself,
// independent of any particular binary embedding it. It advances on
// changes to block layout, size classes, or the growth policy, since
// those are the details a diagnostics consumer cares about.
const EngineVersion = "1.0.0"

// Parsed returns EngineVersion as a semver.Version. It never fails on a
// build where EngineVersion is well-formed, which is enforced by the
// package init below.
func Parsed() *semver.Version {
	return parsed
}

var parsed = mustParse(EngineVersion)

func mustParse(raw string) *semver.Version {
	v, err := semver.NewVersion(raw)
	if err != nil {
		panic(fmt.Sprintf("version: EngineVersion %q does not parse as semver: %v", raw, err))
	}

	return v
}

// Satisfies reports whether EngineVersion satisfies a constraint
// expression such as ">=1.0.0, <2.0.0". A diagnostics client can use this
// to check compatibility with the engine it's attached to without
// embedding its own semver parser.
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("version: invalid constraint %q: %w", constraint, err)
	}

	return c.Check(parsed), nil
}
