package prover

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind distinguishes the ways a prove call can fail: a guest-side
// compliance verdict (one of the sixteen stable ScaError codes), a
// host-side infrastructure failure, or a misconfigured Prover.
type ErrorKind int

const (
	KindDisallowedDependency ErrorKind = iota + 1
	KindDisallowedVersion
	KindDisallowedLicense
	KindUnsupportedLockfileVersion
	KindInvalidMerkleArchive
	KindUndeclaredLockfileDependency
	KindMissingLockfile
	KindManifestLockMismatch
	KindInvalidManifestEncoding
	KindManifestParseError
	KindInvalidLockfileEncoding
	KindLockfileParseError
	KindRedundantLockfile
	KindInvalidWorkspaceCount
	KindUnsupportedPackageManager
	KindInconsistentPackageManager
	KindArchiveParseError
	KindUnknownGuestError
	KindMissingPermittedDependencies
	KindMissingSourceArchive
	KindEnvVarConflict
)

var kindTemplates = map[ErrorKind]string{
	KindDisallowedDependency:         "dependency is not in list permitted: %s",
	KindDisallowedVersion:            "dependency version is below the permitted minimum: %s",
	KindDisallowedLicense:            "dependency license is not on the allow-list: %s",
	KindUnsupportedLockfileVersion:   "lockfile version is unsupported: %s",
	KindInvalidMerkleArchive:         "Merkle archive is malformed or proofs don't verify: %s",
	KindUndeclaredLockfileDependency: "undeclared dependency in lockfile not reachable from workspace roots: %s",
	KindMissingLockfile:              "manifest found with no matching lockfile: %s",
	KindManifestLockMismatch:         "manifest and lockfile contents do not match w.r.t. requirements: %s",
	KindInvalidManifestEncoding:      "invalid manifest encoding: %s",
	KindManifestParseError:           "manifest parse error: %s",
	KindInvalidLockfileEncoding:      "invalid lockfile encoding: %s",
	KindLockfileParseError:           "lockfile parse error: %s",
	KindRedundantLockfile:            "redundant lockfile found for crate: %s",
	KindInvalidWorkspaceCount:        "invalid workspace count: %s",
	KindUnsupportedPackageManager:    "unsupported package manager: %s",
	KindInconsistentPackageManager:   "inconsistent package manager between archive and permitted deps: %s",
	KindArchiveParseError:            "failed to convert archive into Merkle tree: %s",
}

// Error is the typed failure returned by Prover.Prove, mirroring the guest's
// stable ScaError taxonomy on the host side.
type Error struct {
	Kind ErrorKind
	// Detail is the guest-supplied diagnostic for guest verdicts, the
	// build failure for KindArchiveParseError, the conflicting key for
	// KindEnvVarConflict, and empty otherwise.
	Detail string
	// Existing is only set for KindEnvVarConflict: the value already
	// present in the environment.
	Existing string
	// Code carries the raw numeric code only for KindUnknownGuestError.
	Code uint32
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownGuestError:
		return fmt.Sprintf("failed to execute prover (unknown guest error %d): %s", e.Code, e.Detail)
	case KindEnvVarConflict:
		return fmt.Sprintf("environment variable `%s` was already set to %q but option was false", e.Detail, e.Existing)
	case KindMissingPermittedDependencies:
		return "permitted dependencies must be provided"
	case KindMissingSourceArchive:
		return "source archive must be provided"
	default:
		tmpl, ok := kindTemplates[e.Kind]
		if !ok {
			return fmt.Sprintf("prover error %d: %s", e.Kind, e.Detail)
		}
		return fmt.Sprintf(tmpl, e.Detail)
	}
}

func newEnvVarConflict(key, existing string) *Error {
	return &Error{Kind: KindEnvVarConflict, Detail: key, Existing: existing}
}

func newArchiveParseError(detail string) *Error {
	return &Error{Kind: KindArchiveParseError, Detail: detail}
}

// scaErrorKinds maps the guest's stable numeric ScaError codes (carried
// across the zkVM boundary as a "<code>|<detail>" panic string) to the
// matching host-side ErrorKind.
var scaErrorKinds = map[uint32]ErrorKind{
	1:  KindDisallowedDependency,
	2:  KindDisallowedVersion,
	3:  KindDisallowedLicense,
	4:  KindUnsupportedLockfileVersion,
	5:  KindInvalidMerkleArchive,
	6:  KindUndeclaredLockfileDependency,
	7:  KindMissingLockfile,
	8:  KindManifestLockMismatch,
	9:  KindInvalidManifestEncoding,
	10: KindManifestParseError,
	11: KindInvalidLockfileEncoding,
	12: KindLockfileParseError,
	13: KindRedundantLockfile,
	14: KindInvalidWorkspaceCount,
	15: KindUnsupportedPackageManager,
	16: KindInconsistentPackageManager,
}

// parseGuestPanic parses a guest panic string of the form "<code>|<detail>"
// into a typed *Error, falling back to KindUnknownGuestError when the code
// is unrecognized or the message doesn't parse.
func parseGuestPanic(msg string) *Error {
	msg = strings.TrimPrefix(msg, "Guest panicked: ")

	codeStr, detail, ok := strings.Cut(msg, "|")
	if !ok {
		return &Error{Kind: KindUnknownGuestError, Code: 0, Detail: msg}
	}
	code, err := strconv.ParseUint(codeStr, 10, 32)
	if err != nil {
		return &Error{Kind: KindUnknownGuestError, Code: 0, Detail: msg}
	}

	kind, ok := scaErrorKinds[uint32(code)]
	if !ok {
		return &Error{Kind: KindUnknownGuestError, Code: uint32(code), Detail: detail}
	}
	return &Error{Kind: kind, Detail: detail}
}
