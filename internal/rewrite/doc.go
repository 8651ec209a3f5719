// Package rewrite implements pattern-based rewrite rules over an egraph.
//
// Patterns are S-expressions whose atoms beginning with '?' are variables:
//
//	(+ ?a 0)      matches any addition of zero
//	(* ?x ?x)     matches a square; both children must be the same class
//
// A Rewrite searches every class for its left-hand side and, on apply,
// instantiates the right-hand side under each substitution and unions it
// with the matched class.
package rewrite
