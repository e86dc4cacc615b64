package script

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ScriptLexer defines the tokens of a pin script
var ScriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Pin names must match before keywords and identifiers
	{Name: "PinName", Pattern: `[Pp][0-9]+\.[0-9]+`},

	// Keywords (case-insensitive)
	{Name: "KwSet", Pattern: `(?i)\bSET\b`},
	{Name: "KwGet", Pattern: `(?i)\bGET\b`},
	{Name: "KwPort", Pattern: `(?i)\bPORT\b`},
	{Name: "KwFunc", Pattern: `(?i)\bFUNC\b`},
	{Name: "KwDAC", Pattern: `(?i)\bDAC\b`},
	{Name: "KwBias", Pattern: `(?i)\bBIAS\b`},
	{Name: "KwExpect", Pattern: `(?i)\bEXPECT\b`},
	{Name: "KwHigh", Pattern: `(?i)\bHIGH\b`},
	{Name: "KwLow", Pattern: `(?i)\bLOW\b`},

	// Numbers
	{Name: "Hex", Pattern: `0[xX][0-9A-Fa-f]+`},
	{Name: "Bin", Pattern: `0[bB][01]+`},
	{Name: "Integer", Pattern: `[0-9]+`},

	// Punctuation
	{Name: "Assign", Pattern: `=`},
	{Name: "Query", Pattern: `\?`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})
