// Package handoff measures the quality of agent-to-agent work handoffs:
// start/completion pairing, test execution results and contract validation
// outcomes. Per-agent-pair rollups surface the most reliable and most
// problematic pairs. The collector validates the claim that contract-first
// handoffs raise success rate and test coverage.
package handoff
