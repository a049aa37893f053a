package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liminaltech/zk-sca/verifier"
	"github.com/liminaltech/zk-sca/zkvm"
)

func newVerifyCmd() *cobra.Command {
	var (
		receiptPath  string
		imageIDHex   string
		printJournal bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an existing receipt and optionally print its journal in JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(receiptPath, imageIDHex, printJournal)
		},
	}

	cmd.Flags().StringVarP(&receiptPath, "receipt", "r", "", "path to the receipt file")
	cmd.Flags().StringVar(&imageIDHex, "image-id", "", "hex-encoded program image identifier (defaults to the built-in guest image)")
	cmd.Flags().BoolVarP(&printJournal, "print-journal", "j", false, "print the journal contents in JSON format if verification succeeds")

	_ = cmd.MarkFlagRequired("receipt")

	return cmd
}

func runVerify(receiptPath, imageIDHex string, printJournal bool) error {
	data, err := os.ReadFile(receiptPath)
	if err != nil {
		return err
	}
	receipt, err := zkvm.DecodeReceiptFile(data)
	if err != nil {
		return err
	}

	imageID := zkvm.ProgramImageID
	if imageIDHex != "" {
		raw, err := hex.DecodeString(imageIDHex)
		if err != nil {
			return fmt.Errorf("invalid --image-id: %w", err)
		}
		copy(imageID[:], raw)
	}

	if err := verifier.VerifyReceipt(receipt, imageID); err != nil {
		return err
	}

	if printJournal {
		decoded, err := verifier.DecodeJournal(receipt.Journal)
		if err != nil {
			return err
		}
		output := struct {
			RootHash             string      `json:"root_hash"`
			LicensePolicy        interface{} `json:"license_policy,omitempty"`
			PermittedDependencies interface{} `json:"permitted_dependencies"`
		}{
			RootHash:              hex.EncodeToString(decoded.RootHash[:]),
			PermittedDependencies: decoded.PermittedDeps,
			LicensePolicy:         decoded.LicensePolicy,
		}
		pretty, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
	} else {
		fmt.Println("Receipt verified successfully.")
	}

	return nil
}
