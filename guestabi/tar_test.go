package guestabi

import "testing"

func block(name string, sizeOctal string) *[512]byte {
	var b [512]byte
	copy(b[0:100], name)
	copy(b[124:136], sizeOctal)
	return &b
}

func TestParseTarHeaderNameAndSize(t *testing.T) {
	b := block("Cargo.toml", "00000000012")
	hdr := ParseTarHeader(b)
	if hdr.Name != "Cargo.toml" {
		t.Errorf("Name = %q, want Cargo.toml", hdr.Name)
	}
	if hdr.Size != 10 {
		t.Errorf("Size = %d, want 10", hdr.Size)
	}
}

func TestParseTarHeaderInvalidDigitYieldsZero(t *testing.T) {
	b := block("bad.txt", "0000000009X")
	hdr := ParseTarHeader(b)
	if hdr.Size != 0 {
		t.Errorf("Size = %d, want 0 for invalid octal digit", hdr.Size)
	}
}

func TestBlockCount(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{0, 0},
		{1, 1},
		{512, 1},
		{513, 2},
		{1024, 2},
		{1025, 3},
	}
	for _, c := range cases {
		if got := BlockCount(c.size); got != c.want {
			t.Errorf("BlockCount(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}
