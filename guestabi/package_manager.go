package guestabi

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// PackageManager identifies the package-manager family a PartialMerkleArchive
// was resolved with. Cargo is the only supported manager today; the design
// generalizes to others by adding a case here and an analyzer package like
// cargo.
type PackageManager int

const (
	PackageManagerUnknown PackageManager = iota
	PackageManagerCargo
)

func (m PackageManager) String() string {
	switch m {
	case PackageManagerCargo:
		return "Cargo"
	default:
		return "Unknown"
	}
}

// ParsePackageManager parses the manager name used in the
// permitted-dependencies document and CLI flags; it accepts "Cargo" and
// "cargo".
func ParsePackageManager(name string) (PackageManager, error) {
	switch name {
	case "Cargo", "cargo":
		return PackageManagerCargo, nil
	default:
		return PackageManagerUnknown, fmt.Errorf("unsupported package manager: %s", name)
	}
}

// PackageManagerSpec pins a PackageManager to the concrete semver version
// that resolved the archive's dependencies.
type PackageManagerSpec struct {
	Manager PackageManager
	Version *semver.Version
}

// NewPackageManagerSpec constructs a PackageManagerSpec.
func NewPackageManagerSpec(manager PackageManager, version *semver.Version) PackageManagerSpec {
	return PackageManagerSpec{Manager: manager, Version: version}
}
