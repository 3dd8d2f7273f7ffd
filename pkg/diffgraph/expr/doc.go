/*
Package expr provides the expression language used to write operation code.

# Overview

expr implements a small arithmetic language with a lexer, a recursive-descent
parser and an AST interpreter. Operation nodes store two programs written in it:
one computing the node value and one computing the partial derivative with
respect to a chosen input.

# Program Syntax

	<program>   := <stmt> { (newline | ';') <stmt> }
	<stmt>      := identifier '=' <expr> | <expr>
	<expr>      := <or>
	<or>        := <and> { 'or' <and> }
	<and>       := <not> { 'and' <not> }
	<not>       := ('not' | '!') <not> | <cmp>
	<cmp>       := <sum> [ ('==' | '!=' | '<' | '>' | '<=' | '>=') <sum> ]
	<sum>       := <term> { ('+' | '-') <term> }
	<term>      := <unary> { ('*' | '/' | '%') <unary> }
	<unary>     := '-' <unary> | <power>
	<power>     := <primary> [ '^' <unary> ]
	<primary>   := number | string | 'true' | 'false' | identifier
	             | identifier '(' [ <expr> { ',' <expr> } ] ')'
	             | '(' <expr> ')'

A '#' starts a comment that runs to the end of the line. The value of a
program is the value of its last statement.

# Value Types

  - Numbers: 42, 3.14, 1e-3 (always float64)
  - Strings: 'abc' or "abc"
  - Booleans: true, false
  - Lists: ordered keyed numbers (see List); supplied by the caller, never written literally

A list used where a number is expected is accepted only when it holds exactly
one item.

# Built-in Functions

Aggregates accept lists and numbers in any mix:

	sum  prod  count  min  max  mean

Key-aware list helpers:

	has(list, key)       number of items whose key equals key
	without(list, key)   list with the first item keyed by key removed

Math:

	abs  sqrt  exp  ln  log(x[, base])  sin  cos  tan  tanh  floor  ceil  pow(x, y)

Conditional (only the selected branch is evaluated):

	if(cond, then, else)

# Examples

	vars := map[string]any{"x_i": expr.List{{Key: "v1", Value: 2}, {Key: "v2", Value: 1}}}
	v, _ := expr.Eval("f = sum(x_i)\nf", vars)   // 3.0

	vars["target"] = "v1"
	v, _ = expr.Eval("has(x_i, target) * prod(without(x_i, target))", vars)  // 1.0

# Custom Functions

	e := expr.New(
	    expr.WithFunction("clamp", func(args []any) (any, error) { ... }),
	)
*/
package expr
