package guestabi

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/liminaltech/zk-sca/spdxexpr"
)

// LicenseExpr wraps a parsed SPDX license expression so it can be carried on
// an allowlisted Dependency and (de)serialized as its original string form.
type LicenseExpr struct {
	raw  string
	expr spdxexpr.Expr
}

// ParseLicenseExpr parses an SPDX license expression string.
func ParseLicenseExpr(s string) (LicenseExpr, error) {
	expr, err := spdxexpr.Parse(s)
	if err != nil {
		return LicenseExpr{}, fmt.Errorf("license parsing error: %w", err)
	}
	return LicenseExpr{raw: s, expr: expr}, nil
}

// Evaluate reports whether the expression is satisfiable under allowed.
func (l LicenseExpr) Evaluate(allowed func(req string) bool) bool {
	return l.expr.Evaluate(allowed)
}

func (l LicenseExpr) String() string { return l.raw }

func (l LicenseExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.raw)
}

func (l *LicenseExpr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLicenseExpr(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Dependency is an allowlisted package: its canonical name, its permitted
// SPDX license expression, and the lowest version considered free of known
// vulnerabilities.
type Dependency struct {
	Name            string      `json:"name"`
	License         LicenseExpr `json:"license"`
	MinSafeVersion  *semver.Version `json:"min_safe_version"`
}

// PermittedDependencies is a package-manager identity plus a non-empty,
// name-unique allowlist of Dependency entries.
type PermittedDependencies struct {
	ResolvableWith PackageManager `json:"-"`
	Dependencies   []Dependency   `json:"-"`
}

// NewPermittedDependencies validates that deps is non-empty and contains no
// duplicate names, returning a PermittedDependencies sorted by name for
// deterministic iteration.
func NewPermittedDependencies(manager PackageManager, deps []Dependency) (PermittedDependencies, error) {
	if len(deps) == 0 {
		return PermittedDependencies{}, fmt.Errorf("permitted dependencies: must have at least one entry")
	}
	sorted := make([]Dependency, len(deps))
	copy(sorted, deps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return PermittedDependencies{}, fmt.Errorf("permitted dependencies: duplicate dependency `%s`", sorted[i].Name)
		}
	}
	return PermittedDependencies{ResolvableWith: manager, Dependencies: sorted}, nil
}

type permittedDependenciesJSON struct {
	ResolvableWith string       `json:"resolvable_with"`
	Dependencies   []Dependency `json:"dependencies"`
}

func (p PermittedDependencies) MarshalJSON() ([]byte, error) {
	return json.Marshal(permittedDependenciesJSON{
		ResolvableWith: p.ResolvableWith.String(),
		Dependencies:   p.Dependencies,
	})
}

func (p *PermittedDependencies) UnmarshalJSON(data []byte) error {
	var raw permittedDependenciesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	manager, err := ParsePackageManager(raw.ResolvableWith)
	if err != nil {
		return err
	}
	built, err := NewPermittedDependencies(manager, raw.Dependencies)
	if err != nil {
		return err
	}
	*p = built
	return nil
}

// LicensePolicy is a non-empty, duplicate-free set of SPDX license
// requirements. An absent policy means licenses are not checked at all;
// an empty JSON array is treated the same way by the caller that loads it.
type LicensePolicy struct {
	Allowed []string
}

// NewLicensePolicy validates that allowed is non-empty and duplicate-free.
func NewLicensePolicy(allowed []string) (LicensePolicy, error) {
	if len(allowed) == 0 {
		return LicensePolicy{}, fmt.Errorf("license policy: must have at least one entry")
	}
	sorted := make([]string, len(allowed))
	copy(sorted, allowed)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return LicensePolicy{}, fmt.Errorf("license policy: duplicate license requirement `%s`", sorted[i])
		}
	}
	return LicensePolicy{Allowed: sorted}, nil
}

// Contains reports whether req is explicitly allowed by this policy.
func (p LicensePolicy) Contains(req string) bool {
	for _, a := range p.Allowed {
		if a == req {
			return true
		}
	}
	return false
}

func (p LicensePolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Allowed)
}

// ParseLicensePolicyJSON parses a JSON array of SPDX license-requirement
// strings; each element must reduce to exactly one requirement. An empty
// array yields (LicensePolicy{}, false, nil): "no policy".
func ParseLicensePolicyJSON(data []byte) (LicensePolicy, bool, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return LicensePolicy{}, false, err
	}
	if len(raw) == 0 {
		return LicensePolicy{}, false, nil
	}
	reqs := make([]string, 0, len(raw))
	for _, s := range raw {
		req, err := spdxexpr.SingleRequirement(s)
		if err != nil {
			return LicensePolicy{}, false, err
		}
		reqs = append(reqs, req)
	}
	policy, err := NewLicensePolicy(reqs)
	if err != nil {
		return LicensePolicy{}, false, err
	}
	return policy, true, nil
}

func (p *LicensePolicy) UnmarshalJSON(data []byte) error {
	policy, present, err := ParseLicensePolicyJSON(data)
	if err != nil {
		return err
	}
	if !present {
		*p = LicensePolicy{}
		return nil
	}
	*p = policy
	return nil
}

// ResolvedDependency is a fully-resolved, version-pinned dependency produced
// by the package-manager analyzer (C4).
type ResolvedDependency struct {
	Name       string
	Version    *semver.Version
	Provenance string // path of the lockfile that pinned this dependency
}
