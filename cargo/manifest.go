// Package cargo implements the Cargo package-manager analyzer (C4): it
// parses Cargo.toml/Cargo.lock content out of an authenticated partial
// archive and validates the single-workspace, lockfile-reachability, and
// manifest/lock consistency invariants, grounded on the original's cargo.rs.
package cargo

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/liminaltech/zk-sca/guestabi"
)

// rawManifest mirrors the subset of Cargo.toml this analyzer cares about.
type rawManifest struct {
	Dependencies      map[string]rawDependency `toml:"dependencies"`
	BuildDependencies map[string]rawDependency `toml:"build-dependencies"`
	DevDependencies   map[string]rawDependency `toml:"dev-dependencies"`
	Workspace         *rawWorkspace             `toml:"workspace"`
}

type rawWorkspace struct {
	Members []string `toml:"members"`
	Exclude []string `toml:"exclude"`
}

// rawDependency accepts both the short `name = "1.0"` form and the long
// `name = { version = "1.0", package = "real-name" }` form, mirroring
// cargo_manifest's Dependency enum.
type rawDependency struct {
	simple  string
	version string
	pkg     string
}

func (d *rawDependency) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		d.simple = val
		return nil
	case map[string]any:
		if ver, ok := val["version"].(string); ok {
			d.version = ver
		}
		if pkg, ok := val["package"].(string); ok {
			d.pkg = pkg
		}
		return nil
	default:
		// Workspace-inherited or path/git deps with no semver requirement
		// carry no usable version string; treated as unconstrained.
		return nil
	}
}

func (d rawDependency) requirement() string {
	if d.simple != "" {
		return d.simple
	}
	return d.version
}

func (d rawDependency) canonicalName(userKey string) string {
	if d.pkg != "" {
		return d.pkg
	}
	return userKey
}

// manifestInfo is the analyzer's internal view of one parsed Cargo.toml.
type manifestInfo struct {
	path              string
	deps              map[string]*semver.Constraints
	hasWorkspace      bool
	workspaceMembers  []string
	workspaceExcludes []string
}

func parseManifestFile(vf guestabi.ValidatedFile) (manifestInfo, error) {
	var manifest rawManifest
	if _, err := toml.Decode(string(vf.Bytes), &manifest); err != nil {
		return manifestInfo{}, invalid(guestabi.ErrManifestParseError, "failed to parse %q: %v", vf.Header.Name, err)
	}

	deps := map[string]*semver.Constraints{}
	mergeDeps(deps, manifest.Dependencies)
	mergeDeps(deps, manifest.BuildDependencies)
	mergeDeps(deps, manifest.DevDependencies)

	info := manifestInfo{
		path: vf.Header.Name,
		deps: deps,
	}
	if manifest.Workspace != nil {
		info.hasWorkspace = true
		info.workspaceMembers = manifest.Workspace.Members
		if len(manifest.Workspace.Exclude) > 0 {
			info.workspaceExcludes = manifest.Workspace.Exclude
		}
	}
	return info, nil
}

func mergeDeps(target map[string]*semver.Constraints, src map[string]rawDependency) {
	for userKey, dep := range src {
		req := dep.requirement()
		if req == "" {
			continue
		}
		constraint, err := semver.NewConstraint(req)
		if err != nil {
			continue
		}
		target[dep.canonicalName(userKey)] = constraint
	}
}

// toLockPath derives the Cargo.lock path that must sit beside a given
// Cargo.toml path.
func toLockPath(manifestPath string) string {
	dir := strings.TrimSuffix(manifestPath, "Cargo.toml")
	return dir + "Cargo.lock"
}
