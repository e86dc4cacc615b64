// Package script parses and runs pin scripts against a GPIO target.
//
//	# blink the status LED and check the jumper
//	set P0.4 high
//	expect P1.4 high
//	port 0 = 0xB1
//	port 12 ?
//	func P0.5 = 2
//	dac 512 bias
package script

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

var scriptParser = participle.MustBuild[Script](
	participle.Lexer(ScriptLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses a script from a reader
func Parse(filename string, r io.Reader) (*Script, error) {
	s, err := scriptParser.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return s, nil
}

// ParseString parses a script from a string
func ParseString(filename, src string) (*Script, error) {
	s, err := scriptParser.ParseString(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return s, nil
}

// ParseFile parses a script file
func ParseFile(filename string) (*Script, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(filename, file)
}
