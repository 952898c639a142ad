// Package core contains the domain contracts of researchmesh: the metric
// record model, persistence and strategy interfaces, notification types and
// the shared statistical heuristics (confidence, trend, projection).
//
// Keeping the contracts central avoids dependency cycles between the
// collector engine, the domain collectors and the storage backends.
// Implementation packages (collector, storage, experiment, research) depend
// on this package and never on each other's concrete types.
package core
