package zkvm_test

import (
	"testing"

	"github.com/liminaltech/zk-sca/zkvm"
)

func TestReceiptFileRoundTrips(t *testing.T) {
	original := zkvm.Receipt{
		ImageID: zkvm.ProgramImageID,
		Journal: []byte(`{"version":0}`),
	}
	encoded, err := zkvm.EncodeReceiptFile(original)
	if err != nil {
		t.Fatalf("EncodeReceiptFile: %v", err)
	}
	decoded, err := zkvm.DecodeReceiptFile(encoded)
	if err != nil {
		t.Fatalf("DecodeReceiptFile: %v", err)
	}
	if decoded.ImageID != original.ImageID {
		t.Error("ImageID mismatch after round trip")
	}
	if string(decoded.Journal) != string(original.Journal) {
		t.Error("Journal mismatch after round trip")
	}
}
