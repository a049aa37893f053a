// Package archive implements the host-side partial-archive builder (C3):
// it streams a gzipped USTAR archive and emits the PartialMerkleArchive
// structure the guest consumes. Implemented on the standard library's
// compress/gzip — the direct idiomatic equivalent of the Rust original's
// external flate2 crate; no third-party gzip/tar decoder appears anywhere
// in the example corpus this module was grounded on (see DESIGN.md).
package archive

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/liminaltech/zk-sca/guestabi"
)

// BuildError is a host-side infrastructure failure building the archive —
// distinct from any guest verdict, surfaced to callers as ArchiveParseError.
type BuildError struct {
	msg string
}

func (e *BuildError) Error() string { return e.msg }

func buildErrf(format string, args ...any) *BuildError {
	return &BuildError{msg: fmt.Sprintf(format, args...)}
}

const blockSize = 512

// ustarMagicOffset is the offset of the 8-byte USTAR magic+version fields.
const ustarMagicOffset = 257

var ustarMagic = [8]byte{'u', 's', 't', 'a', 'r', 0, '0', '0'}

// Build creates a PartialMerkleArchive from a gzipped USTAR archive bundle.
func Build(bundle guestabi.SourceBundle) (*guestabi.PartialMerkleArchive, error) {
	data, err := gunzip(bundle.TarGz())
	if err != nil {
		return nil, err
	}

	if len(data) < blockSize {
		return nil, buildErrf("no entries in archive")
	}
	if !isUstar(data[:blockSize]) {
		return nil, buildErrf("unsupported TAR format: not USTAR")
	}

	wantDep, err := dependencyPredicate(bundle.ResolvedWith().Manager)
	if err != nil {
		return nil, err
	}

	// rawBlocks[0] is reserved for the count leaf, filled in after the scan.
	rawBlocks := [][blockSize]byte{{}}
	var headerIndices []int
	var depRawIndices []int
	var depHeaderIndices []int

	offset := 0
	for offset+blockSize <= len(data) {
		var hdrBlock [blockSize]byte
		copy(hdrBlock[:], data[offset:offset+blockSize])
		offset += blockSize

		if isZeroBlock(&hdrBlock) {
			break // archive terminator
		}
		if typeflag := hdrBlock[156]; typeflag == 'x' || typeflag == 'g' || typeflag == 'L' || typeflag == 'K' {
			return nil, buildErrf("unsupported TAR format: PAX/GNU extended headers are not accepted")
		}

		hdr := guestabi.ParseTarHeader(&hdrBlock)
		isDepHdr := wantDep(hdr.Name)

		hdrRawIdx := len(rawBlocks)
		rawBlocks = append(rawBlocks, hdrBlock)
		headerIndices = append(headerIndices, hdrRawIdx)
		hdrLeafPos := len(headerIndices) - 1
		if isDepHdr {
			depHeaderIndices = append(depHeaderIndices, hdrLeafPos)
		}

		needed := guestabi.BlockCount(hdr.Size)
		for i := 0; i < needed; i++ {
			if offset+blockSize > len(data) {
				return nil, buildErrf("truncated TAR archive while reading %q", hdr.Name)
			}
			var dataBlock [blockSize]byte
			copy(dataBlock[:], data[offset:offset+blockSize])
			offset += blockSize

			dataRawIdx := len(rawBlocks)
			rawBlocks = append(rawBlocks, dataBlock)
			if isDepHdr {
				depRawIndices = append(depRawIndices, dataRawIdx)
			}
		}
	}

	// Write the count leaf: zero-padded ASCII decimal of the header count.
	var countBlock [blockSize]byte
	countStr := strconv.Itoa(len(headerIndices))
	copy(countBlock[:], countStr)
	rawBlocks[0] = countBlock

	leafHashes := make([][32]byte, len(rawBlocks))
	for i, blk := range rawBlocks {
		leafHashes[i] = sha256.Sum256(blk[:])
	}

	layers := [][][32]byte{leafHashes}
	for len(layers[len(layers)-1]) > 1 {
		prev := layers[len(layers)-1]
		next := make([][32]byte, 0, (len(prev)+1)/2)
		for i := 0; i < len(prev); i += 2 {
			left := prev[i]
			right := left
			if i+1 < len(prev) {
				right = prev[i+1]
			}
			var combined [64]byte
			copy(combined[:32], left[:])
			copy(combined[32:], right[:])
			next = append(next, sha256.Sum256(combined[:]))
		}
		layers = append(layers, next)
	}
	rootHash := layers[len(layers)-1][0]

	proofs := make([][]guestabi.MerklePathNode, len(rawBlocks))
	for leafIdx := range rawBlocks {
		idx := leafIdx
		var path []guestabi.MerklePathNode
		for level := 0; level < len(layers)-1; level++ {
			cur := layers[level]
			isLeft := idx%2 == 0
			var sibling [32]byte
			if isLeft {
				if idx+1 < len(cur) {
					sibling = cur[idx+1]
				} else {
					sibling = cur[idx]
				}
			} else {
				sibling = cur[idx-1]
			}
			path = append(path, guestabi.MerklePathNode{SiblingHash: sibling, IsLeftChild: isLeft})
			idx /= 2
		}
		proofs[leafIdx] = path
	}

	countLeaf := guestabi.MerkleLeaf{Data: countBlock, Path: proofs[0]}

	headerLeaves := make([]guestabi.MerkleLeaf, len(headerIndices))
	for i, rawIdx := range headerIndices {
		headerLeaves[i] = guestabi.MerkleLeaf{Data: rawBlocks[rawIdx], Path: proofs[rawIdx]}
	}

	depLeaves := make([]guestabi.MerkleLeaf, len(depRawIndices))
	for i, rawIdx := range depRawIndices {
		depLeaves[i] = guestabi.MerkleLeaf{Data: rawBlocks[rawIdx], Path: proofs[rawIdx]}
	}

	return &guestabi.PartialMerkleArchive{
		ResolvedWith:                bundle.ResolvedWith(),
		RootHash:                    rootHash,
		CountLeaf:                   countLeaf,
		HeaderLeaves:                headerLeaves,
		DependencyFileLeaves:        depLeaves,
		DependencyFileHeaderIndices: depHeaderIndices,
	}, nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, buildErrf("I/O error: %v", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, buildErrf("I/O error: %v", err)
	}
	return out, nil
}

func isUstar(headerBlock []byte) bool {
	if len(headerBlock) < ustarMagicOffset+8 {
		return false
	}
	return bytes.Equal(headerBlock[ustarMagicOffset:ustarMagicOffset+8], ustarMagic[:])
}

func isZeroBlock(block *[blockSize]byte) bool {
	for _, b := range block {
		if b != 0 {
			return false
		}
	}
	return true
}

// dependencyPredicate returns a predicate over TAR entry names identifying
// which headers are "dependency metadata" for the given package manager.
func dependencyPredicate(manager guestabi.PackageManager) (func(name string) bool, error) {
	switch manager {
	case guestabi.PackageManagerCargo:
		return func(name string) bool {
			return name == "Cargo.toml" || strings.HasSuffix(name, "/Cargo.toml") ||
				name == "Cargo.lock" || strings.HasSuffix(name, "/Cargo.lock")
		}, nil
	default:
		return nil, buildErrf("unsupported package manager")
	}
}
