// Package verifier checks a zkvm.Receipt against the expected program image
// and decodes its journal into the caller-facing attestation result.
// Grounded on the original's verifier/src/lib.rs.
package verifier

import (
	"encoding/json"
	"fmt"

	"github.com/liminaltech/zk-sca/guestabi"
	"github.com/liminaltech/zk-sca/zkvm"
)

// ErrorKind distinguishes why a receipt failed to verify.
type ErrorKind int

const (
	KindReceiptVerificationFailed ErrorKind = iota + 1
	KindJournalDecodeError
	KindUnsupportedJournalVersion
)

// Error is the typed failure returned by VerifyReceipt and DecodeJournal.
type Error struct {
	Kind    ErrorKind
	Detail  string
	Version uint32 // set only for KindUnsupportedJournalVersion
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindReceiptVerificationFailed:
		return fmt.Sprintf("receipt verification failed: %s", e.Detail)
	case KindJournalDecodeError:
		return fmt.Sprintf("journal decoding failed: %s", e.Detail)
	case KindUnsupportedJournalVersion:
		return fmt.Sprintf("unsupported journal version %d; please upgrade verifier", e.Version)
	default:
		return fmt.Sprintf("verifier error: %s", e.Detail)
	}
}

// VerifyReceipt checks the receipt's seal against the expected program
// image ID.
func VerifyReceipt(receipt zkvm.Receipt, imageID zkvm.ImageID) error {
	if err := receipt.Verify(imageID); err != nil {
		return &Error{Kind: KindReceiptVerificationFailed, Detail: err.Error()}
	}
	return nil
}

// DecodedJournal is the caller-facing view of a verified guest journal.
type DecodedJournal struct {
	RootHash      [32]byte
	PermittedDeps guestabi.PermittedDependencies
	LicensePolicy *guestabi.LicensePolicy
}

// DecodeJournal decodes and version-checks the journal carried by a
// receipt. Only GuestOutputVersion0 is currently understood; any other
// version is rejected rather than best-effort decoded.
func DecodeJournal(journal []byte) (DecodedJournal, error) {
	var out guestabi.GuestOutput
	if err := json.Unmarshal(journal, &out); err != nil {
		return DecodedJournal{}, &Error{Kind: KindJournalDecodeError, Detail: err.Error()}
	}

	v0, ok := out.AsV0()
	if !ok {
		return DecodedJournal{}, &Error{Kind: KindUnsupportedJournalVersion, Version: out.Version}
	}

	return DecodedJournal{
		RootHash:      v0.RootHash,
		PermittedDeps: v0.PermittedDeps,
		LicensePolicy: v0.LicensePolicy,
	}, nil
}
