// Package term defines the boolean-algebra term language.
//
// Expressions are written as s-expressions with prefix operators:
//
//	(~ x)      negation
//	(* x y)    conjunction
//	(+ x y)    disjunction
//	(=> x y)   implication
//	(<=> x y)  biimplication
//
// Leaves are the constants true and false and symbols such as p or q1.
// Every Expr variant carries exactly its operator's arity of children, so
// malformed trees are rejected when they are built rather than when they
// are rewritten.
package term
