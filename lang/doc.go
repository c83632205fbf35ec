// Package lang implements a small template language for producing text
// from live data.
//
// A template is literal text interleaved with expressions in braces:
//
//	Hello {name}!
//	{+:2:3}                    → 5
//	{if:{>:{score}:90}:A:B}    → A or B
//	{upper:{lower:AbC}}        → ABC
//	{for:[1,2,3]:{*:{i}:2}}    → [2,4,6]
//	{#.title}                  → HTML-escaped, empty if title is undefined
//	{pos.x}                    → x component of a vector
//
// # Grammar
//
// Informal EBNF:
//
//	Template   → ( Literal | '{' Expression '}' )*
//	Expression → Sigil* Name ( '.' Accessor )* ( ':' Param )*
//	Sigil      → '#' | '.'
//	Param      → Template | Quote Template Quote
//
// Parameters are templates themselves, so expressions nest. A parameter
// may contain ':' when it is wrapped in matching quotes or brackets, or
// when the ':' belongs to a nested expression. A backslash escapes the
// character after it: \{ and \} produce literal braces and \: a literal
// colon.
//
// The '#' sigil HTML-escapes the result. The '.' sigil makes the expression
// optional: any error while evaluating it produces the empty string.
//
// # Compilation
//
// [Prepare] compiles a template into an arena of expressions. Repeated
// occurrences of the same expression text compile to one arena entry that
// the others refer to, and its value is computed at most once per
// realization.
//
// # Resolution
//
// [Template.Realize] resolves each expression name in order against:
//
//  1. The loop variables {i} and {index} inside a for body
//  2. Caller variables of the [Env]
//  3. The special forms if and for
//  4. Globals of the [Env], then functions (built-in or registered)
//  5. Scratch variables and live [Objects] of the [State]
//
// A name that resolves nowhere is an error wrapping [ErrUnknownVariable].
//
// # Concurrency
//
// Compiling is safe from any number of goroutines. Realizing writes memoized
// values into the template, so a single [Template] must not be realized
// concurrently; use [Template.Clone] to give each goroutine its own copy.
package lang
