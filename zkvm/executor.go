// Package zkvm abstracts the zkVM boundary: a program image identity, an
// Executor that runs the guest pipeline and returns a Receipt, and a Receipt
// that can later be checked against the image ID. No Go zkVM toolchain
// exists in the example corpus this module draws on, so the boundary is
// modeled as a plain interface with a deterministic in-process
// implementation; a real backend (e.g. a RISC-V zkVM host SDK) would satisfy
// the same Executor interface without changing any caller.
package zkvm

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/liminaltech/zk-sca/guest"
	"github.com/liminaltech/zk-sca/guestabi"
)

// ImageID identifies a specific build of the guest program. A receipt only
// verifies against the ImageID it was produced for.
type ImageID [32]byte

// ProgramImageID is this module's fixed guest program identity. A real zkVM
// toolchain derives this from a build of the guest binary; here it simply
// pins the guest pipeline's input/output ABI version.
var ProgramImageID = ImageID(sha256.Sum256([]byte(fmt.Sprintf("zk-sca-guest/v%d", guestabi.GuestOutputVersion0))))

// Receipt is the attestation artifact: the committed journal plus a seal
// binding it to the image that produced it.
type Receipt struct {
	ImageID ImageID
	Journal []byte
	Seal    [32]byte
}

func seal(imageID ImageID, journal []byte) [32]byte {
	h := sha256.New()
	h.Write(imageID[:])
	h.Write(journal)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Verify checks that receipt was sealed for imageID and that the seal has
// not been tampered with.
func (r Receipt) Verify(imageID ImageID) error {
	if r.ImageID != imageID {
		return fmt.Errorf("receipt was sealed for a different program image")
	}
	if r.Seal != seal(r.ImageID, r.Journal) {
		return fmt.Errorf("receipt seal does not match its journal")
	}
	return nil
}

// Executor runs the guest pipeline against input and returns a sealed
// Receipt, or an error string in the "<code>|<detail>" panic format the
// guest program communicates failures in across the zkVM boundary.
type Executor interface {
	Prove(input guestabi.GuestInput) (Receipt, error)
}

// InProcessExecutor runs the guest pipeline directly in the host process.
// It is the only Executor implementation this module ships, since no guest
// toolchain or zkVM runtime is available to target.
type InProcessExecutor struct{}

// Prove implements Executor.
func (InProcessExecutor) Prove(input guestabi.GuestInput) (Receipt, error) {
	out, err := guest.Run(input)
	if err != nil {
		if ge, ok := err.(*guestabi.GuestError); ok {
			return Receipt{}, fmt.Errorf("%s", ge.Panic())
		}
		return Receipt{}, err
	}

	journal, encErr := json.Marshal(out)
	if encErr != nil {
		return Receipt{}, fmt.Errorf("failed to encode journal: %w", encErr)
	}

	return Receipt{
		ImageID: ProgramImageID,
		Journal: journal,
		Seal:    seal(ProgramImageID, journal),
	}, nil
}
