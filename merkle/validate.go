// Package merkle implements the guest-side Merkle verifier (C2): given a
// PartialMerkleArchive and its claimed root hash, it authenticates the full
// header set and every dependency file's byte content, rejecting any
// omission, duplication, reordering, truncation, or corruption a malicious
// host might have introduced. Hashing follows the plain SHA-256 leaf/node
// discipline used by the teacher's backend/attester Merkle tree (no RFC 6962
// domain-separation prefixes), adapted to the partial-archive authentication
// shape this spec requires.
package merkle

import (
	"crypto/sha256"
	"strconv"
	"strings"

	"github.com/liminaltech/zk-sca/guestabi"
)

// Validate authenticates archive against its own RootHash and returns the
// complete header set and the authenticated dependency files. Any tampering
// surfaces as a *guestabi.GuestError with code InvalidMerkleArchive.
func Validate(archive *guestabi.PartialMerkleArchive) (*guestabi.ValidPartialArchive, error) {
	v := &verifier{archive: archive}

	count, err := v.countLeaf()
	if err != nil {
		return nil, err
	}
	headers, err := v.headerLeaves(count)
	if err != nil {
		return nil, err
	}
	if err := v.uniqueNames(headers); err != nil {
		return nil, err
	}
	files, err := v.dependencyBlocks(headers)
	if err != nil {
		return nil, err
	}

	return &guestabi.ValidPartialArchive{Headers: headers, Files: files}, nil
}

type verifier struct {
	archive *guestabi.PartialMerkleArchive
}

func invalid(format string, args ...any) error {
	return guestabi.NewGuestError(guestabi.ErrInvalidMerkleArchive, format, args...)
}

func (v *verifier) countLeaf() (int, error) {
	leaf := v.archive.CountLeaf
	if !verifyLeafProof(&leaf.Data, leaf.Path, &v.archive.RootHash) {
		return 0, invalid("Merkle proof failed for a leaf block")
	}
	s := strings.TrimRight(string(leaf.Data[:]), "\x00")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, invalid("Bad header count")
	}
	return n, nil
}

func (v *verifier) headerLeaves(expected int) ([]guestabi.TarHeader, error) {
	leaves := v.archive.HeaderLeaves
	if len(leaves) != expected {
		return nil, invalid("Expected %d header proofs, got %d", expected, len(leaves))
	}
	headers := make([]guestabi.TarHeader, len(leaves))
	for i, leaf := range leaves {
		if !verifyLeafProof(&leaf.Data, leaf.Path, &v.archive.RootHash) {
			return nil, invalid("Merkle proof failed for a leaf block")
		}
		headers[i] = guestabi.ParseTarHeader(&leaf.Data)
	}
	return headers, nil
}

func (v *verifier) uniqueNames(headers []guestabi.TarHeader) error {
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if seen[h.Name] {
			return invalid("Duplicate file name encountered: %s", h.Name)
		}
		seen[h.Name] = true
	}
	return nil
}

func (v *verifier) dependencyBlocks(headers []guestabi.TarHeader) ([]guestabi.ValidatedFile, error) {
	leaves := v.archive.DependencyFileLeaves
	headerProofs := v.archive.HeaderLeaves
	depIndices := v.archive.DependencyFileHeaderIndices

	for _, idx := range depIndices {
		if idx < 0 || idx >= len(headers) {
			return nil, invalid("Bad dependency header index %d", idx)
		}
	}

	expectedBlocks := 0
	for _, idx := range depIndices {
		expectedBlocks += guestabi.BlockCount(headers[idx].Size)
	}
	if len(leaves) != expectedBlocks {
		return nil, invalid("Expected %d data-block proofs, got %d", expectedBlocks, len(leaves))
	}

	pos := 0
	files := make([]guestabi.ValidatedFile, 0, len(depIndices))
	for _, hdrIdx := range depIndices {
		hdr := headers[hdrIdx]
		hLeaf := headerProofs[hdrIdx]
		needed := guestabi.BlockCount(hdr.Size)

		headerLeafIndex := reconstructLeafIndex(hLeaf.Path)
		buf := make([]byte, 0, hdr.Size)

		for offset := 1; offset <= needed; offset++ {
			if pos >= len(leaves) {
				return nil, invalid("Missing data leaf")
			}
			leaf := leaves[pos]
			pos++
			if !verifyLeafProof(&leaf.Data, leaf.Path, &v.archive.RootHash) {
				return nil, invalid("Merkle proof failed for a leaf block")
			}
			actualIdx := reconstructLeafIndex(leaf.Path)
			expectIdx := headerLeafIndex + offset
			if actualIdx != expectIdx {
				return nil, invalid("Dependency-file indices out of order: expected %d, got %d", expectIdx, actualIdx)
			}
			buf = append(buf, leaf.Data[:]...)
		}
		if len(buf) > hdr.Size {
			buf = buf[:hdr.Size]
		}

		files = append(files, guestabi.ValidatedFile{Header: hdr, Bytes: buf})
	}

	if pos != len(leaves) {
		return nil, invalid("Extra data leaves")
	}
	return files, nil
}

// reconstructLeafIndex reconstructs the zero-based leaf index from a Merkle
// proof. Bits are consumed LSB-first; path[0] is depth-0.
func reconstructLeafIndex(path []guestabi.MerklePathNode) int {
	idx := 0
	for bit, node := range path {
		if !node.IsLeftChild {
			idx |= 1 << bit
		}
	}
	return idx
}

// verifyLeafProof checks a block's Merkle path against the archive root
// using SHA-256, with the left-duplicate rule applied during tree
// construction (see archive.Build).
func verifyLeafProof(data *[512]byte, path []guestabi.MerklePathNode, root *[32]byte) bool {
	current := sha256.Sum256(data[:])
	for _, node := range path {
		var combined [64]byte
		if node.IsLeftChild {
			copy(combined[:32], current[:])
			copy(combined[32:], node.SiblingHash[:])
		} else {
			copy(combined[:32], node.SiblingHash[:])
			copy(combined[32:], current[:])
		}
		current = sha256.Sum256(combined[:])
	}
	return current == *root
}
