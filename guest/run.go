// Package guest implements the attestation pipeline (the guest program's
// business logic): verifying the Merkle archive, dispatching to the
// package-manager analyzer, auditing the result against policy, and
// committing the public journal. Grounded on the original's guest/method
// main.rs, with the zkVM boundary (env::read/env::commit/panic) abstracted
// behind the zkvm package so this logic can run identically inside a real
// guest or a host-side deterministic executor.
package guest

import (
	"github.com/Masterminds/semver/v3"

	"github.com/liminaltech/zk-sca/cargo"
	"github.com/liminaltech/zk-sca/guestabi"
	"github.com/liminaltech/zk-sca/merkle"
	"github.com/liminaltech/zk-sca/policy"
)

// minCargoVersion is the first stable Cargo release able to produce
// Cargo.lock schema v3.
var minCargoVersion = semver.MustParse("1.51.0")

// Run executes the full attestation pipeline against input and returns the
// public journal to commit on success. Any failure is a *guestabi.GuestError.
func Run(input guestabi.GuestInput) (guestabi.GuestOutput, error) {
	archive := input.SrcArchive
	permitted := input.PermittedDeps

	if archive.ResolvedWith.Manager != permitted.ResolvableWith {
		return guestabi.GuestOutput{}, guestabi.NewGuestError(
			guestabi.ErrInconsistentPackageManager,
			"archive resolved with `%s` but permitted deps are resolvable with `%s`",
			archive.ResolvedWith.Manager, permitted.ResolvableWith,
		)
	}

	vpa, err := merkle.Validate(&archive)
	if err != nil {
		return guestabi.GuestOutput{}, err
	}

	var resolved []guestabi.ResolvedDependency
	switch {
	case archive.ResolvedWith.Manager == guestabi.PackageManagerCargo &&
		archive.ResolvedWith.Version != nil && !archive.ResolvedWith.Version.LessThan(minCargoVersion):
		resolved, err = cargo.ValidateCargoArchive(vpa)
	default:
		return guestabi.GuestOutput{}, guestabi.NewGuestError(
			guestabi.ErrUnsupportedPackageManager,
			"`%s` is not supported", archive.ResolvedWith.Manager,
		)
	}
	if err != nil {
		return guestabi.GuestOutput{}, err
	}

	if err := policy.Audit(resolved, permitted, input.LicensePolicy); err != nil {
		return guestabi.GuestOutput{}, err
	}

	out := guestabi.NewGuestOutputV0(guestabi.GuestOutputV0{
		RootHash:      archive.RootHash,
		PermittedDeps: permitted,
		LicensePolicy: input.LicensePolicy,
	})
	return out, nil
}
