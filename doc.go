// Package flowgate classifies flow cytometry events with gates.
//
// An event is a vector of raw measurements, one per detector channel. Gates
// are geometric regions (rectangles, polygons, convex polytopes, ellipsoids),
// decision trees, or boolean combinations of other gates. A gate decides
// whether an event is inside it by reading parameter values, and a
// parameter may be a raw channel or derived from other parameters by
// compensation or a scale transformation.
//
// Typical use is as follows:
//
//  1. Declare the raw parameters and load events into a population
//  2. Create the derived parameters (see packages compensation and transform)
//  3. Create gates and add them to a GateSet
//  4. Create an Analyzer for the gate set
//  5. Analyze the population
//  6. Inspect the subpopulations in the Result
//
// # Parameters and resolution
//
// Parameters are referenced by name (Ref). A Resolver stacks collections of
// parameter providers: raw channels at the bottom, then for example
// compensated channels, then transformed channels. A reference is resolved
// by asking its provider, which may in turn ask the resolver for the
// parameters it depends on. Duplicate names and dependency cycles are
// rejected when the resolver is built:
//
//	raw, _ := flowgate.NewRawParameters("FSC-A", "SSC-A")
//	r, err := flowgate.NewResolver(raw, transforms)
//
// # Gates
//
// Gate construction checks the geometry. Boolean gates refer to other gates
// and must be validated before use, which rejects dependency cycles:
//
//	A -> B -> A
//
// A GateSet validates every gate it holds and checks that every operand of
// a boolean gate is part of the set. The Builder creates a GateSet from
// yaml descriptions and resolves operands by gate ID, in any order.
//
// # Analysis
//
// The Analyzer evaluates the gates of its gate set, optionally several at a
// time. A gate that fails on an event (for example because a parameter
// cannot be resolved) is reported in Result.Errors and does not stop the
// other gates. The gate set can be swapped atomically while analyses are
// running.
//
// Explain reports how a single event was classified by a gate, including
// the parameter values it read.
package flowgate
