package merkle_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/liminaltech/zk-sca/archive"
	"github.com/liminaltech/zk-sca/guestabi"
	"github.com/liminaltech/zk-sca/merkle"
)

func buildTestBundle(t *testing.T, files map[string]string) guestabi.SourceBundle {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, name := range []string{"Cargo.toml", "Cargo.lock", "src/lib.rs"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		hdr := &tar.Header{
			Name:   name,
			Size:   int64(len(content)),
			Mode:   0o644,
			Format: tar.FormatUSTAR,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader(%s): %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}

	spec := guestabi.NewPackageManagerSpec(guestabi.PackageManagerCargo, nil)
	return guestabi.NewSourceBundle(buf.Bytes(), spec)
}

func TestValidateAcceptsHonestArchive(t *testing.T) {
	bundle := buildTestBundle(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\n",
		"Cargo.lock": "version = 3\n",
		"src/lib.rs": "fn main() {}\n",
	})
	built, err := archive.Build(bundle)
	if err != nil {
		t.Fatalf("archive.Build: %v", err)
	}

	valid, err := merkle.Validate(built)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(valid.Headers) != 3 {
		t.Errorf("got %d headers, want 3", len(valid.Headers))
	}
	if len(valid.Files) != 2 {
		t.Fatalf("got %d dependency files, want 2", len(valid.Files))
	}
	names := map[string]string{}
	for _, f := range valid.Files {
		names[f.Header.Name] = string(f.Bytes)
	}
	if names["Cargo.toml"] != "[package]\nname = \"demo\"\n" {
		t.Errorf("Cargo.toml content mismatch: %q", names["Cargo.toml"])
	}
	if names["Cargo.lock"] != "version = 3\n" {
		t.Errorf("Cargo.lock content mismatch: %q", names["Cargo.lock"])
	}
}

func TestValidateRejectsCorruptedDependencyBlock(t *testing.T) {
	bundle := buildTestBundle(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\n",
		"Cargo.lock": "version = 3\n",
	})
	built, err := archive.Build(bundle)
	if err != nil {
		t.Fatalf("archive.Build: %v", err)
	}
	built.DependencyFileLeaves[0].Data[0] ^= 0xFF

	if _, err := merkle.Validate(built); err == nil {
		t.Error("expected corrupted data block to be rejected")
	}
}

func TestValidateRejectsTamperedHeader(t *testing.T) {
	bundle := buildTestBundle(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\n",
	})
	built, err := archive.Build(bundle)
	if err != nil {
		t.Fatalf("archive.Build: %v", err)
	}
	built.HeaderLeaves[0].Data[1] ^= 0xFF

	if _, err := merkle.Validate(built); err == nil {
		t.Error("expected tampered header block to be rejected")
	}
}

func TestValidateRejectsWrongCount(t *testing.T) {
	bundle := buildTestBundle(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\n",
		"Cargo.lock": "version = 3\n",
	})
	built, err := archive.Build(bundle)
	if err != nil {
		t.Fatalf("archive.Build: %v", err)
	}
	built.HeaderLeaves = built.HeaderLeaves[:1]

	if _, err := merkle.Validate(built); err == nil {
		t.Error("expected header-count mismatch (omission) to be rejected")
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	// Two entries with the same name, honestly built: every proof and the
	// count leaf verify, so only the duplicate-name check can reject it.
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	content := "[package]\nname = \"demo\"\n"
	for i := 0; i < 2; i++ {
		hdr := &tar.Header{Name: "Cargo.toml", Size: int64(len(content)), Mode: 0o644, Format: tar.FormatUSTAR}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	spec := guestabi.NewPackageManagerSpec(guestabi.PackageManagerCargo, nil)
	built, err := archive.Build(guestabi.NewSourceBundle(buf.Bytes(), spec))
	if err != nil {
		t.Fatalf("archive.Build: %v", err)
	}

	if _, err := merkle.Validate(built); err == nil {
		t.Error("expected duplicate-name archive to be rejected")
	}
}
