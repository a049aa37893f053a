package guestabi

import "strings"

// TarHeader is the subset of a USTAR 512-byte header the attestation
// pipeline relies on: the file name and its declared size.
type TarHeader struct {
	Name string
	Size int
}

// ParseTarHeader parses a 512-byte tar header block, extracting the file
// name (bytes 0..100, zero-padded) and file size (bytes 124..136, octal
// ASCII).
func ParseTarHeader(block *[512]byte) TarHeader {
	name := strings.TrimRight(string(block[0:100]), "\x00")
	size := parseOctal(block[124:136])
	return TarHeader{Name: name, Size: size}
}

// parseOctal parses an octal number from a byte slice. On any byte that is
// not a NUL, a space, or an ASCII octal digit, parsing yields 0 rather than
// attempting to recover a partial value (see SPEC_FULL.md Design Notes O1).
func parseOctal(input []byte) int {
	result := 0
	for _, b := range input {
		switch {
		case b == 0 || b == ' ':
			continue
		case b >= '0' && b <= '7':
			result = result*8 + int(b-'0')
		default:
			return 0
		}
	}
	return result
}

// BlockCount returns how many 512-byte blocks are needed to hold size bytes.
func BlockCount(size int) int {
	return (size + 511) / 512
}
