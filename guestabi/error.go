// Package guestabi defines the wire-level data model shared between the
// host (builder, prover, verifier) and the guest attestation pipeline.
package guestabi

import "fmt"

// ScaError is a stable numeric error code the guest panics with as part of
// the "<code>|<detail>" diagnostic string. The numbering is part of the
// wire contract between the guest and the host's panic-message parser and
// must never be renumbered.
type ScaError uint32

const (
	ErrDisallowedDependency          ScaError = 1
	ErrDisallowedVersion             ScaError = 2
	ErrDisallowedLicense             ScaError = 3
	ErrUnsupportedLockfileVersion    ScaError = 4
	ErrInvalidMerkleArchive          ScaError = 5
	ErrUndeclaredLockfileDependency  ScaError = 6
	ErrMissingLockfile               ScaError = 7
	ErrManifestLockMismatch          ScaError = 8
	ErrInvalidManifestEncoding       ScaError = 9
	ErrManifestParseError            ScaError = 10
	ErrInvalidLockfileEncoding       ScaError = 11
	ErrLockfileParseError            ScaError = 12
	ErrRedundantLockfile             ScaError = 13
	ErrInvalidWorkspaceCount         ScaError = 14
	ErrUnsupportedPackageManager     ScaError = 15
	ErrInconsistentPackageManager    ScaError = 16
)

func (c ScaError) String() string {
	switch c {
	case ErrDisallowedDependency:
		return "DisallowedDependency"
	case ErrDisallowedVersion:
		return "DisallowedVersion"
	case ErrDisallowedLicense:
		return "DisallowedLicense"
	case ErrUnsupportedLockfileVersion:
		return "UnsupportedLockfileVersion"
	case ErrInvalidMerkleArchive:
		return "InvalidMerkleArchive"
	case ErrUndeclaredLockfileDependency:
		return "UndeclaredLockfileDependency"
	case ErrMissingLockfile:
		return "MissingLockfile"
	case ErrManifestLockMismatch:
		return "ManifestLockMismatch"
	case ErrInvalidManifestEncoding:
		return "InvalidManifestEncoding"
	case ErrManifestParseError:
		return "ManifestParseError"
	case ErrInvalidLockfileEncoding:
		return "InvalidLockfileEncoding"
	case ErrLockfileParseError:
		return "LockfileParseError"
	case ErrRedundantLockfile:
		return "RedundantLockfile"
	case ErrInvalidWorkspaceCount:
		return "InvalidWorkspaceCount"
	case ErrUnsupportedPackageManager:
		return "UnsupportedPackageManager"
	case ErrInconsistentPackageManager:
		return "InconsistentPackageManager"
	default:
		return fmt.Sprintf("ScaError(%d)", uint32(c))
	}
}

// GuestError pairs a stable ScaError kind with a short human diagnostic. It
// is the Go analogue of the original's `(ScaError, String)` result tuple,
// and is what the guest pipeline panics with as "<code>|<detail>".
type GuestError struct {
	Code   ScaError
	Detail string
}

func (e *GuestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Panic renders the error as the "<code>|<detail>" string the guest
// program panics with, and the host-side prover parses back out.
func (e *GuestError) Panic() string {
	return fmt.Sprintf("%d|%s", uint32(e.Code), e.Detail)
}

// NewGuestError constructs a GuestError with a formatted detail message.
func NewGuestError(code ScaError, format string, args ...any) *GuestError {
	return &GuestError{Code: code, Detail: fmt.Sprintf(format, args...)}
}
