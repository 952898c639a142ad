// Package coordination measures routing behavior in a hub-and-spoke agent
// topology. Every routed request is tagged with whether it passed through
// the central hub; direct agent-to-agent traffic is recorded as a compliance
// violation automatically. The collector validates the claim that
// centralized routing keeps coordination overhead low while agents stay
// compliant with hub mediation.
package coordination
