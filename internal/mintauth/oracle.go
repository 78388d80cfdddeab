// oracle.go - External compliance engine, consumed as a boolean oracle.

package mintauth

import "github.com/sovchain/sovmint/internal/mintcircuit"

// ComplianceOracle is the tiered KYC/limit engine's decision surface. The
// engine itself lives outside this module; the orchestrator only consumes
// its verdict.
type ComplianceOracle interface {
	TransferPermitted(minter string, pub mintcircuit.PublicInputs) bool
}

// AllowAll is the default oracle for deployments without a compliance
// engine attached.
type AllowAll struct{}

func (AllowAll) TransferPermitted(string, mintcircuit.PublicInputs) bool { return true }
