// Integration tests exercise the full flow:
// 1. Build a source archive
// 2. Prove it against a permitted-dependencies policy
// 3. Verify the resulting receipt
// 4. Decode its journal and check the audited root hash
package tests

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/liminaltech/zk-sca/guestabi"
	"github.com/liminaltech/zk-sca/prover"
	"github.com/liminaltech/zk-sca/verifier"
	"github.com/liminaltech/zk-sca/zkvm"
)

func gzTar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644, Format: tar.FormatUSTAR}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	tw.Close()
	gw.Close()
	return buf.Bytes()
}

const manifest = `
[package]
name = "demo"
version = "0.1.0"

[dependencies]
regex = "1.10"
`

const lockfile = `
version = 3

[[package]]
name = "demo"
version = "0.1.0"
dependencies = ["regex"]

[[package]]
name = "regex"
version = "1.10.2"
source = "registry+https://github.com/rust-lang/crates.io-index"
`

func TestIntegrationFlow(t *testing.T) {
	archiveBytes := gzTar(t, map[string]string{
		"Cargo.toml": manifest,
		"Cargo.lock": lockfile,
	})

	managerVersion, err := semver.NewVersion("1.75.0")
	if err != nil {
		t.Fatalf("semver.NewVersion: %v", err)
	}
	bundle := guestabi.NewSourceBundle(archiveBytes, guestabi.NewPackageManagerSpec(guestabi.PackageManagerCargo, managerVersion))

	minSafe, err := semver.NewVersion("1.0.0")
	if err != nil {
		t.Fatalf("semver.NewVersion: %v", err)
	}
	license, err := guestabi.ParseLicenseExpr("MIT")
	if err != nil {
		t.Fatalf("ParseLicenseExpr: %v", err)
	}
	permitted, err := guestabi.NewPermittedDependencies(guestabi.PackageManagerCargo, []guestabi.Dependency{
		{Name: "regex", License: license, MinSafeVersion: minSafe},
	})
	if err != nil {
		t.Fatalf("NewPermittedDependencies: %v", err)
	}

	receipt, err := prover.New().
		WithBundle(bundle).
		WithPermittedDeps(permitted).
		Prove()
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if err := verifier.VerifyReceipt(receipt, zkvm.ProgramImageID); err != nil {
		t.Fatalf("VerifyReceipt: %v", err)
	}

	decoded, err := verifier.DecodeJournal(receipt.Journal)
	if err != nil {
		t.Fatalf("DecodeJournal: %v", err)
	}
	if decoded.RootHash == ([32]byte{}) {
		t.Error("expected a non-zero audited root hash")
	}
	if decoded.PermittedDeps.ResolvableWith != guestabi.PackageManagerCargo {
		t.Error("expected the journal to echo back the Cargo permitted-dependencies policy")
	}
}
