// Package rbcheck checks Ruby-flavoured scripts without running them. A
// source file flows through three stages:
//   - Tokenize turns text into tokens, including heredocs, percent literals
//     and string interpolation, and reports unterminated strings.
//   - Parse builds an AST and recovers from malformed statements, reporting
//     missing `end` keywords, unbalanced delimiters and unexpected tokens.
//   - Analyze walks the AST once and reports operand type mismatches, unsafe
//     string casts, misplaced control keywords and constant redefinitions.
//
// No stage stops at the first problem. AnalyzeSource runs the whole pipeline
// and returns every diagnostic in source order; a Checker additionally
// applies a Config loaded from .rbcheck.yml.
package rbcheck
