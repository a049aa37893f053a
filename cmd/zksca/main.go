// Command zksca is the offline CLI around the prove/verify pipeline: it
// reads a source archive and policy documents, produces a receipt file,
// and checks a receipt file against a program image identifier.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:     "zksca",
		Short:   "Prove or verify a receipt of software composition analysis",
		Version: "0.1.0",
	}

	root.AddCommand(newProveCmd())
	root.AddCommand(newVerifyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
