// Package prover builds GuestInput from a source bundle and allowlist and
// drives an Executor to produce a zkvm.Receipt, translating guest panic
// strings back into a typed Error taxonomy. Grounded on the original's
// prover/src/{prover,errors,env_guard}.rs.
package prover

import (
	"fmt"
	"sync"

	"github.com/liminaltech/zk-sca/archive"
	"github.com/liminaltech/zk-sca/guestabi"
	"github.com/liminaltech/zk-sca/zkvm"
)

// ProverOpts are optional toggles that do not affect the compliance
// verdict, only diagnostics around the prove call.
type ProverOpts struct {
	// DevMode skips proof generation in a real zkVM backend.
	DevMode bool
	// CycleReport enables verbose cycle-count logging in a real zkVM
	// backend.
	CycleReport bool
}

// Prover is a builder for a prove invocation. Each With* method returns a
// new Prover, so calls chain in any order with later calls winning.
type Prover struct {
	bundle        *guestabi.SourceBundle
	permittedDeps *guestabi.PermittedDependencies
	licensePolicy *guestabi.LicensePolicy
	opts          ProverOpts
	executor      zkvm.Executor
}

// New creates an empty Prover. Call WithBundle and WithPermittedDeps before
// Prove.
func New() Prover {
	return Prover{executor: zkvm.InProcessExecutor{}}
}

// WithBundle sets the SourceBundle to be analyzed. Required before Prove.
func (p Prover) WithBundle(bundle guestabi.SourceBundle) Prover {
	p.bundle = &bundle
	return p
}

// WithPermittedDeps sets the allowlist. Required before Prove.
func (p Prover) WithPermittedDeps(deps guestabi.PermittedDependencies) Prover {
	p.permittedDeps = &deps
	return p
}

// WithLicensePolicy sets the license policy. If unset, all licenses are
// permitted.
func (p Prover) WithLicensePolicy(policy guestabi.LicensePolicy) Prover {
	p.licensePolicy = &policy
	return p
}

// WithDevMode toggles proof generation skipping in a real zkVM backend.
func (p Prover) WithDevMode(enabled bool) Prover {
	p.opts.DevMode = enabled
	return p
}

// WithCycleReport toggles cycle-count diagnostics in a real zkVM backend.
func (p Prover) WithCycleReport(enabled bool) Prover {
	p.opts.CycleReport = enabled
	return p
}

// WithExecutor overrides the Executor used by Prove; tests use this to
// substitute a mock. Defaults to zkvm.InProcessExecutor.
func (p Prover) WithExecutor(executor zkvm.Executor) Prover {
	p.executor = executor
	return p
}

// Config is the validated, immutable configuration returned by Build.
type Config struct {
	bundle        guestabi.SourceBundle
	permittedDeps guestabi.PermittedDependencies
	licensePolicy *guestabi.LicensePolicy
	opts          ProverOpts
	executor      zkvm.Executor
}

// Build validates required fields and returns a Config.
func (p Prover) Build() (Config, error) {
	if p.bundle == nil {
		return Config{}, &Error{Kind: KindMissingSourceArchive}
	}
	if p.permittedDeps == nil {
		return Config{}, &Error{Kind: KindMissingPermittedDependencies}
	}
	return Config{
		bundle:        *p.bundle,
		permittedDeps: *p.permittedDeps,
		licensePolicy: p.licensePolicy,
		opts:          p.opts,
		executor:      p.executor,
	}, nil
}

// Prove validates the Prover's configuration and runs the proof.
func (p Prover) Prove() (zkvm.Receipt, error) {
	config, err := p.Build()
	if err != nil {
		return zkvm.Receipt{}, err
	}
	return config.Prove()
}

// proveLock serializes every prove call across the process: diagnostic
// environment variables mutated during a prove are process-global state.
var proveLock sync.Mutex

// Prove generates the proof using this configuration.
func (c Config) Prove() (zkvm.Receipt, error) {
	proveLock.Lock()
	defer proveLock.Unlock()

	devModeGuard, err := NewGuard("ZKSCA_DEV_MODE", "1", c.opts.DevMode)
	if err != nil {
		return zkvm.Receipt{}, err
	}
	defer devModeGuard.Release()

	cycleGuard, err := NewGuard("ZKSCA_CYCLE_REPORT", "1", c.opts.CycleReport)
	if err != nil {
		return zkvm.Receipt{}, err
	}
	defer cycleGuard.Release()

	builtArchive, err := archive.Build(c.bundle)
	if err != nil {
		return zkvm.Receipt{}, newArchiveParseError(fmt.Sprint(err))
	}

	guestInput := guestabi.GuestInput{
		SrcArchive:    *builtArchive,
		PermittedDeps: c.permittedDeps,
		LicensePolicy: c.licensePolicy,
	}

	executor := c.executor
	if executor == nil {
		executor = zkvm.InProcessExecutor{}
	}

	receipt, err := executor.Prove(guestInput)
	if err != nil {
		return zkvm.Receipt{}, parseGuestPanic(err.Error())
	}
	return receipt, nil
}
