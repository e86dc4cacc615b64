package script

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Script is a parsed pin script
type Script struct {
	Pos        lexer.Position
	Statements []*Statement `@@*`
}

// Statement is one line of a script
type Statement struct {
	Pos    lexer.Position
	Set    *SetStmt    `  KwSet @@`
	Get    *GetStmt    `| KwGet @@`
	Port   *PortStmt   `| KwPort @@`
	Func   *FuncStmt   `| KwFunc @@`
	DAC    *DACStmt    `| KwDAC @@`
	Expect *ExpectStmt `| KwExpect @@`
}

// PinRef names a pin by datasheet name ("P0.5") or logical id ("105")
type PinRef struct {
	Pos  lexer.Position
	Name string `@PinName | @Integer`
}

// Level is a pin level keyword
type Level struct {
	High bool `@KwHigh | KwLow`
}

// Number is an integer literal in decimal, hex or binary
type Number struct {
	Pos   lexer.Position
	Value string `@(Hex | Bin | Integer)`
}

// SetStmt drives a pin: "set P0.4 high"
type SetStmt struct {
	Pin   PinRef `@@`
	Level Level  `@@`
}

// GetStmt reads a pin: "get P1.20"
type GetStmt struct {
	Pin PinRef `@@`
}

// PortStmt writes or reads a group: "port 0 = 0xB1", "port 12 ?"
type PortStmt struct {
	Group Number  `@@`
	Op    GroupOp `@@`
}

// GroupOp is the tail of a port or func statement
type GroupOp struct {
	Value *Number `  Assign @@`
	Query bool    `| @Query`
}

// FuncStmt selects or reads a pin function: "func P0.5 = 2", "func P0.5 ?"
type FuncStmt struct {
	Pin PinRef  `@@`
	Op  GroupOp `@@`
}

// DACStmt sets the analog output: "dac 512 bias"
type DACStmt struct {
	Value Number `@@`
	Bias  bool   `@KwBias?`
}

// ExpectStmt asserts a pin level or a group value:
// "expect P1.20 high", "expect port 12 = 0x3C"
type ExpectStmt struct {
	Port *PortExpect `  KwPort @@`
	Pin  *PinExpect  `| @@`
}

// PortExpect is the group form of expect
type PortExpect struct {
	Group Number `@@ Assign`
	Value Number `@@`
}

// PinExpect is the pin form of expect
type PinExpect struct {
	Pin   PinRef `@@`
	Level Level  `@@`
}
