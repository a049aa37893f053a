package guestabi

// MerklePathNode is one step of a leaf's authentication path: the sibling
// hash at that level, and whether the *current* node (not the sibling) is
// the left child of its parent.
type MerklePathNode struct {
	SiblingHash [32]byte
	IsLeftChild bool
}

// MerkleLeaf is a single 512-byte TAR block plus its authentication path,
// ordered leaf-to-root.
type MerkleLeaf struct {
	Data [512]byte
	Path []MerklePathNode
}

// PartialMerkleArchive is the subset of a full Merkle tree over a TAR's
// 512-byte blocks that the guest needs: every header leaf, data leaves for
// dependency-metadata files only, plus their authentication paths. See
// SPEC_FULL.md section 3.
type PartialMerkleArchive struct {
	ResolvedWith                PackageManagerSpec
	RootHash                    [32]byte
	CountLeaf                   MerkleLeaf
	HeaderLeaves                []MerkleLeaf
	DependencyFileLeaves        []MerkleLeaf
	DependencyFileHeaderIndices []int
}

// ValidatedFile is a verified TarHeader and its content, produced only by
// the Merkle verifier (C2) and never trusted otherwise.
type ValidatedFile struct {
	Header TarHeader
	Bytes  []byte
}

// ValidPartialArchive is the output of the Merkle verifier: the complete,
// authenticated set of TAR headers and the fully-materialized dependency
// files.
type ValidPartialArchive struct {
	Headers []TarHeader
	Files   []ValidatedFile
}
