package zkvm_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/liminaltech/zk-sca/archive"
	"github.com/liminaltech/zk-sca/guestabi"
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

func mustDep(t *testing.T, name, license, minVersion string) guestabi.Dependency {
	t.Helper()
	expr, err := guestabi.ParseLicenseExpr(license)
	if err != nil {
		t.Fatalf("ParseLicenseExpr: %v", err)
	}
	v, err := semver.NewVersion(minVersion)
	if err != nil {
		t.Fatalf("semver.NewVersion: %v", err)
	}
	return guestabi.Dependency{Name: name, License: expr, MinSafeVersion: v}
}

func TestInProcessExecutorProducesVerifiableReceipt(t *testing.T) {
	cargoVersion, _ := semver.NewVersion("1.75.0")
	spec := guestabi.NewPackageManagerSpec(guestabi.PackageManagerCargo, cargoVersion)

	data := gzTar(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\n\n[dependencies]\nregex = \"1.10\"\n",
		"Cargo.lock": "version = 3\n\n[[package]]\nname = \"demo\"\nversion = \"0.1.0\"\ndependencies = [\"regex\"]\n\n[[package]]\nname = \"regex\"\nversion = \"1.10.4\"\nsource = \"registry+https://github.com/rust-lang/crates.io-index\"\n",
	})
	bundle := guestabi.NewSourceBundle(data, spec)

	built, err := archive.Build(bundle)
	if err != nil {
		t.Fatalf("archive.Build: %v", err)
	}

	allow, err := guestabi.NewPermittedDependencies(guestabi.PackageManagerCargo, []guestabi.Dependency{
		mustDep(t, "regex", "MIT", "1.0.0"),
	})
	if err != nil {
		t.Fatalf("NewPermittedDependencies: %v", err)
	}

	input := guestabi.GuestInput{SrcArchive: *built, PermittedDeps: allow}

	exec := zkvm.InProcessExecutor{}
	receipt, err := exec.Prove(input)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := receipt.Verify(zkvm.ProgramImageID); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestInProcessExecutorSurfacesGuestPanicString(t *testing.T) {
	cargoVersion, _ := semver.NewVersion("1.75.0")
	spec := guestabi.NewPackageManagerSpec(guestabi.PackageManagerCargo, cargoVersion)

	data := gzTar(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\n\n[dependencies]\nregex = \"1.10\"\n",
		"Cargo.lock": "version = 3\n\n[[package]]\nname = \"demo\"\nversion = \"0.1.0\"\ndependencies = [\"regex\"]\n\n[[package]]\nname = \"regex\"\nversion = \"1.10.4\"\nsource = \"registry+https://github.com/rust-lang/crates.io-index\"\n",
	})
	bundle := guestabi.NewSourceBundle(data, spec)

	built, err := archive.Build(bundle)
	if err != nil {
		t.Fatalf("archive.Build: %v", err)
	}

	allow, err := guestabi.NewPermittedDependencies(guestabi.PackageManagerCargo, []guestabi.Dependency{
		mustDep(t, "serde", "MIT", "1.0.0"),
	})
	if err != nil {
		t.Fatalf("NewPermittedDependencies: %v", err)
	}

	input := guestabi.GuestInput{SrcArchive: *built, PermittedDeps: allow}

	exec := zkvm.InProcessExecutor{}
	_, err = exec.Prove(input)
	if err == nil {
		t.Fatal("expected a guest panic for a disallowed dependency")
	}
	if !strings.HasPrefix(err.Error(), "1|") {
		t.Errorf("error = %q, want it to start with the DisallowedDependency code", err.Error())
	}
}
