package zkvm

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// EncodeReceiptFile serializes a Receipt to the on-disk container format:
// gob over the Receipt value, the stand-in for the real zkVM toolchain's
// binary receipt format.
func EncodeReceiptFile(receipt Receipt) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(receipt); err != nil {
		return nil, fmt.Errorf("failed to encode receipt file: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeReceiptFile parses a receipt file produced by EncodeReceiptFile.
func DecodeReceiptFile(data []byte) (Receipt, error) {
	var receipt Receipt
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("failed to decode receipt file: %w", err)
	}
	return receipt, nil
}
