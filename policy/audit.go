// Package policy implements the dependency audit (C5): it checks each
// fully-resolved dependency against the caller-supplied allowlist and
// optional license policy, erroring out on the first non-compliant package.
package policy

import (
	"github.com/liminaltech/zk-sca/guestabi"
)

func invalid(code guestabi.ScaError, format string, args ...any) error {
	return guestabi.NewGuestError(code, format, args...)
}

// Audit checks every resolved dependency against allowlist, and — when
// licensePolicy is non-nil — against the license policy too.
func Audit(resolved []guestabi.ResolvedDependency, allowlist guestabi.PermittedDependencies, licensePolicy *guestabi.LicensePolicy) error {
	allowByName := make(map[string]guestabi.Dependency, len(allowlist.Dependencies))
	for _, d := range allowlist.Dependencies {
		allowByName[d.Name] = d
	}

	for _, dep := range resolved {
		if err := enforce(dep, allowByName, licensePolicy); err != nil {
			return err
		}
	}
	return nil
}

func enforce(dep guestabi.ResolvedDependency, allowByName map[string]guestabi.Dependency, licensePolicy *guestabi.LicensePolicy) error {
	safe, ok := allowByName[dep.Name]
	if !ok {
		return invalid(guestabi.ErrDisallowedDependency, "%s not permitted", dep.Name)
	}

	if licensePolicy != nil {
		if !safe.License.Evaluate(licensePolicy.Contains) {
			return invalid(guestabi.ErrDisallowedLicense, "%s (via %s) not permitted", dep.Name, dep.Provenance)
		}
	}

	if dep.Version.LessThan(safe.MinSafeVersion) {
		return invalid(guestabi.ErrDisallowedVersion, "%s@%s < min %s", dep.Name, dep.Version, safe.MinSafeVersion)
	}

	return nil
}
