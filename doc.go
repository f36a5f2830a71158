// Package eqsat simplifies boolean expressions and decides their
// equivalence by equality saturation.
//
// An expression is seeded into an e-graph, rewrite rules are applied until
// no rule adds a new equality or a limit is hit, and the cheapest member of
// the root class is extracted:
//
//	e := eqsat.New()
//	best := e.Simplify(eqsat.MustParse("(* (~ (~ p)) true)")) // p
//
// Equivalence checks seed both expressions into one graph and report
// whether their classes merged. A false answer means the rules did not
// prove the equality within the limits.
//
// Engine configuration lives in a YAML file, see Config. Batch files with
// one job per line are run concurrently by ProcessFile.
package eqsat
