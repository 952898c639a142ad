// Package experiment provides the A/B experiment harness consumed by the
// research orchestrator: an in-memory runner implementing
// core.ExperimentRunner plus YAML-loadable experiment definitions with
// seeded defaults, one comparison per hypothesis.
package experiment
