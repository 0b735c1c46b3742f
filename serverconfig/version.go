package serverconfig

import (
	"regexp"

	"github.com/hashicorp/go-version"
)

// coreVersion admits only MAJOR.MINOR.PATCH. go-version alone is more lenient
// (pre-release tails, "v" prefix, any arity), so it only runs on strings that pass.
var coreVersion = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

func parseVersion(raw string) (*version.Version, bool) {
	if !coreVersion.MatchString(raw) {
		return nil, false
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		// component overflow
		return nil, false
	}
	return v, true
}

// versionAtLeast reports whether actual >= minimum. Unparseable input on either
// side yields false.
func versionAtLeast(actual, minimum string) bool {
	have, ok := parseVersion(actual)
	if !ok {
		return false
	}
	want, ok := parseVersion(minimum)
	if !ok {
		return false
	}
	return !have.LessThan(want)
}
