package cargo

import (
	"sort"
	"strings"

	"github.com/liminaltech/zk-sca/guestabi"
)

func invalid(code guestabi.ScaError, format string, args ...any) error {
	return guestabi.NewGuestError(code, format, args...)
}

// ValidateCargoArchive validates all Cargo metadata contained in a verified
// partial archive and returns a flattened list of fully-resolved external
// dependencies. Enforces:
//  1. Exactly one Cargo workspace (implicit or explicit) is present.
//  2. The workspace root has a single Cargo.lock.
//  3. Every declared dependency requirement, across every Cargo.toml, is
//     satisfied by some package version in the workspace lockfile.
//  4. Every package in every Cargo.lock is reachable from a workspace
//     member via that lockfile's own dependency graph.
//  5. All lockfiles are schema version 3 or 4.
func ValidateCargoArchive(archive *guestabi.ValidPartialArchive) ([]guestabi.ResolvedDependency, error) {
	var manifests []manifestInfo
	for _, vf := range archive.Files {
		if !strings.HasSuffix(vf.Header.Name, "Cargo.toml") {
			continue
		}
		m, err := parseManifestFile(vf)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}

	workspaceRootPath, err := ensureSingleWorkspace(manifests)
	if err != nil {
		return nil, err
	}

	var locks []lockInfo
	for _, vf := range archive.Files {
		if !strings.HasSuffix(vf.Header.Name, "Cargo.lock") {
			continue
		}
		l, err := parseLockFile(vf)
		if err != nil {
			return nil, err
		}
		locks = append(locks, l)
	}

	manifestByPath := make(map[string]manifestInfo, len(manifests))
	for _, m := range manifests {
		manifestByPath[m.path] = m
	}
	lockByPath := make(map[string]lockInfo, len(locks))
	for _, l := range locks {
		lockByPath[l.path] = l
	}

	for path, manifest := range manifestByPath {
		if manifest.hasWorkspace {
			continue
		}
		ownLock := toLockPath(path)
		if _, ok := lockByPath[ownLock]; ok {
			return nil, invalid(guestabi.ErrRedundantLockfile, "crate %q unexpectedly has its own Cargo.lock", path)
		}
	}

	workspaceLockPath := toLockPath(workspaceRootPath)
	workspaceLock, ok := lockByPath[workspaceLockPath]
	if !ok {
		return nil, invalid(guestabi.ErrMissingLockfile, "workspace root %q has no %q", workspaceRootPath, workspaceLockPath)
	}

	for _, manifest := range manifestByPath {
		if err := ensureDeclaredReqsAreSatisfied(manifest, workspaceLock); err != nil {
			return nil, err
		}
	}

	for _, lock := range lockByPath {
		if err := ensureLockGraphIsReachable(lock); err != nil {
			return nil, err
		}
	}

	var resolved []guestabi.ResolvedDependency
	for _, lock := range lockByPath {
		names := make([]string, 0, len(lock.pkgs))
		for name := range lock.pkgs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if lock.pathPkgs[name] {
				continue
			}
			resolved = append(resolved, guestabi.ResolvedDependency{
				Name:       name,
				Version:    lock.pkgs[name],
				Provenance: lock.path,
			})
		}
	}

	return resolved, nil
}

// ensureSingleWorkspace determines the sole workspace root path, covering
// both explicit (`[workspace]`-bearing manifest) and implicit (a standalone
// crate with no workspace at all) cases.
func ensureSingleWorkspace(manifests []manifestInfo) (string, error) {
	var explicitRoots []manifestInfo
	for _, m := range manifests {
		if m.hasWorkspace {
			explicitRoots = append(explicitRoots, m)
		}
	}

	roots := map[string]bool{}
	for _, manifest := range manifests {
		if manifest.hasWorkspace {
			roots[manifest.path] = true
			continue
		}

		owner := ""
		for _, root := range explicitRoots {
			if workspaceOwnsManifest(root, manifest) {
				owner = root.path
				break
			}
		}

		if owner != "" {
			roots[owner] = true
		} else {
			roots[manifest.path] = true
		}
	}

	if len(roots) != 1 {
		return "", invalid(guestabi.ErrInvalidWorkspaceCount, "archive contains %d Cargo workspaces; exactly one required", len(roots))
	}
	for root := range roots {
		return root, nil
	}
	return "", invalid(guestabi.ErrInvalidWorkspaceCount, "archive contains 0 Cargo workspaces; exactly one required")
}

// workspaceOwnsManifest reports whether manifest is a member of the
// explicit workspace root, honoring `exclude` before `members`.
func workspaceOwnsManifest(root, manifest manifestInfo) bool {
	rootDir := strings.TrimSuffix(root.path, "Cargo.toml")
	if !strings.HasPrefix(manifest.path, rootDir) {
		return false
	}

	for _, excl := range root.workspaceExcludes {
		exclPrefix := rootDir + strings.TrimSuffix(excl, "/")
		if strings.HasPrefix(manifest.path, exclPrefix) {
			return false
		}
	}

	if root.workspaceMembers == nil {
		// No `members` key is a wildcard: owns every crate under root not
		// already excluded.
		return true
	}
	if len(root.workspaceMembers) == 0 {
		// `[workspace]` with an empty `members = []` owns nothing.
		return false
	}
	for _, member := range root.workspaceMembers {
		memberPrefix := rootDir + strings.TrimSuffix(member, "/")
		if strings.HasPrefix(manifest.path, memberPrefix) {
			return true
		}
	}
	return false
}

func ensureDeclaredReqsAreSatisfied(manifest manifestInfo, lock lockInfo) error {
	names := make([]string, 0, len(manifest.deps))
	for name := range manifest.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, pkg := range names {
		req := manifest.deps[pkg]
		ver, ok := lock.pkgs[pkg]
		if !ok || !req.Check(ver) {
			return invalid(guestabi.ErrManifestLockMismatch, "requirement %q %s not satisfied by %s", pkg, req, lock.path)
		}
	}
	return nil
}

// ensureLockGraphIsReachable verifies that every package in lock is
// reachable, via lock's own dependency graph, from one of its path
// packages (workspace members), defending against lockfile poisoning.
func ensureLockGraphIsReachable(lock lockInfo) error {
	stack := make([]string, 0, len(lock.pathPkgs))
	for pkg := range lock.pathPkgs {
		stack = append(stack, pkg)
	}
	seen := map[string]bool{}

	for len(stack) > 0 {
		pkg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[pkg] {
			continue
		}
		seen[pkg] = true
		for _, child := range lock.deps[pkg] {
			stack = append(stack, child)
		}
	}

	names := make([]string, 0, len(lock.pkgs))
	for name := range lock.pkgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, pkg := range names {
		if !seen[pkg] {
			return invalid(guestabi.ErrUndeclaredLockfileDependency, "dependency %q in %s is not reachable from workspace roots", pkg, lock.path)
		}
	}
	return nil
}
