package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liminaltech/zk-sca/guestabi"
	"github.com/liminaltech/zk-sca/prover"
	"github.com/liminaltech/zk-sca/spdxexpr"
	"github.com/liminaltech/zk-sca/zkvm"
)

func newProveCmd() *cobra.Command {
	var (
		archivePath    string
		managerName    string
		managerVersion string
		permittedPath  string
		allowedLicense []string
		devMode        bool
		cycleReport    bool
		outputPath     string
	)

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Generate a receipt for a source .tar.gz archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProve(proveArgs{
				archivePath:    archivePath,
				managerName:    managerName,
				managerVersion: managerVersion,
				permittedPath:  permittedPath,
				allowedLicense: allowedLicense,
				devMode:        devMode,
				cycleReport:    cycleReport,
				outputPath:     outputPath,
			})
		},
	}

	cmd.Flags().StringVarP(&archivePath, "archive", "a", "", "path to the source .tar.gz archive")
	cmd.Flags().StringVarP(&managerName, "package-manager", "m", "", "package manager used to resolve archive dependencies (e.g., Cargo)")
	cmd.Flags().StringVarP(&managerVersion, "package-manager-version", "v", "", "version of the package manager used to resolve archive dependencies (semver)")
	cmd.Flags().StringVarP(&permittedPath, "permitted-deps", "p", "", "path to the permitted-dependencies JSON file")
	cmd.Flags().StringSliceVar(&allowedLicense, "allowed-licenses", nil, "one or more permitted license identifiers")
	cmd.Flags().BoolVar(&devMode, "dev-mode", false, "run in dev mode (no proof generated)")
	cmd.Flags().BoolVar(&cycleReport, "cycle-report", false, "log cycle counts during proving")
	cmd.Flags().StringVar(&outputPath, "output", "", "path to write the resulting receipt (overrides default)")

	_ = cmd.MarkFlagRequired("archive")
	_ = cmd.MarkFlagRequired("package-manager")
	_ = cmd.MarkFlagRequired("package-manager-version")
	_ = cmd.MarkFlagRequired("permitted-deps")

	return cmd
}

type proveArgs struct {
	archivePath    string
	managerName    string
	managerVersion string
	permittedPath  string
	allowedLicense []string
	devMode        bool
	cycleReport    bool
	outputPath     string
}

func runProve(a proveArgs) error {
	outputPath := a.outputPath
	if outputPath == "" {
		base := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(a.archivePath), ".gz"), ".tar")
		outputPath = base + ".zk-sca.bin"
	}

	manager, err := guestabi.ParsePackageManager(a.managerName)
	if err != nil {
		return fmt.Errorf("unsupported package manager: %w", err)
	}

	managerVersion, err := parseSemver(a.managerVersion)
	if err != nil {
		return fmt.Errorf("invalid semver %q: %w", a.managerVersion, err)
	}

	tarBytes, err := os.ReadFile(a.archivePath)
	if err != nil {
		return err
	}

	permittedRaw, err := os.ReadFile(a.permittedPath)
	if err != nil {
		return err
	}
	var permitted guestabi.PermittedDependencies
	if err := json.Unmarshal(permittedRaw, &permitted); err != nil {
		return fmt.Errorf("failed to parse permitted dependencies: %w", err)
	}

	bundle := guestabi.NewSourceBundle(tarBytes, guestabi.NewPackageManagerSpec(manager, managerVersion))

	p := prover.New().WithBundle(bundle).WithPermittedDeps(permitted)

	if len(a.allowedLicense) > 0 {
		reqs := make([]string, 0, len(a.allowedLicense))
		for _, l := range a.allowedLicense {
			req, err := spdxexpr.SingleRequirement(l)
			if err != nil {
				return fmt.Errorf("invalid license requirement %q: %w", l, err)
			}
			reqs = append(reqs, req)
		}
		policy, err := guestabi.NewLicensePolicy(reqs)
		if err != nil {
			return err
		}
		p = p.WithLicensePolicy(policy)
	}
	if a.devMode {
		p = p.WithDevMode(true)
	}
	if a.cycleReport {
		p = p.WithCycleReport(true)
	}

	receipt, err := p.Prove()
	if err != nil {
		if perr, ok := err.(*prover.Error); ok {
			switch perr.Kind {
			case prover.KindMissingPermittedDependencies:
				return fmt.Errorf("--permitted-deps is required")
			case prover.KindMissingSourceArchive:
				return fmt.Errorf("--archive is required")
			}
		}
		return fmt.Errorf("prover failed: %w", err)
	}

	encoded, err := zkvm.EncodeReceiptFile(receipt)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return err
	}

	fmt.Printf("Success! Receipt written to '%s'\n", outputPath)
	return nil
}
