package cargo

import (
	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/liminaltech/zk-sca/guestabi"
)

type rawLockfile struct {
	Version  int             `toml:"version"`
	Packages []rawLockedPkg `toml:"package"`
}

type rawLockedPkg struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       *string  `toml:"source"`
	Dependencies []string `toml:"dependencies"`
}

// lockInfo is the analyzer's internal view of one parsed Cargo.lock.
type lockInfo struct {
	path     string
	pkgs     map[string]*semver.Version
	deps     map[string][]string
	pathPkgs map[string]bool
}

// supportedLockVersions restricts acceptance to the schema versions that
// reliably carry source/checksum metadata for every transitive dependency.
var supportedLockVersions = map[int]bool{3: true, 4: true}

func parseLockFile(vf guestabi.ValidatedFile) (lockInfo, error) {
	var raw rawLockfile
	if _, err := toml.Decode(string(vf.Bytes), &raw); err != nil {
		return lockInfo{}, invalid(guestabi.ErrLockfileParseError, "failed to parse %q: %v", vf.Header.Name, err)
	}

	if !supportedLockVersions[raw.Version] {
		return lockInfo{}, invalid(guestabi.ErrUnsupportedLockfileVersion, "unsupported Cargo.lock version (expected 3 or 4)")
	}

	pkgs := make(map[string]*semver.Version, len(raw.Packages))
	deps := make(map[string][]string, len(raw.Packages))
	pathPkgs := map[string]bool{}

	for _, pkg := range raw.Packages {
		ver, err := semver.NewVersion(pkg.Version)
		if err != nil {
			return lockInfo{}, invalid(guestabi.ErrLockfileParseError, "%q has an invalid version for package %q: %v", vf.Header.Name, pkg.Name, err)
		}
		pkgs[pkg.Name] = ver
		deps[pkg.Name] = depNames(pkg.Dependencies)
		if pkg.Source == nil {
			pathPkgs[pkg.Name] = true
		}
	}

	return lockInfo{path: vf.Header.Name, pkgs: pkgs, deps: deps, pathPkgs: pathPkgs}, nil
}

// depNames strips the optional " <version>" suffix Cargo.lock uses to
// disambiguate same-named dependency entries; only the package name drives
// graph reachability here.
func depNames(entries []string) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		name := e
		for j := 0; j < len(e); j++ {
			if e[j] == ' ' {
				name = e[:j]
				break
			}
		}
		out[i] = name
	}
	return out
}
