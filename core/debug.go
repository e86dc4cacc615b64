package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures one GPIO command for post-mortem analysis
type TraceEvent struct {
	Op    uint8  // Op* code
	Code  Code   // result of the command
	ID    int32  // pin, group or DAC value
	Value uint32 // level, byte, function code or read result
}

// Trace op codes (also carried as op=%c in gpio_status)
const (
	OpWritePin       = 1
	OpReadPin        = 2
	OpWritePort      = 3
	OpReadPort       = 4
	OpSelectFunction = 5
	OpReadFunction   = 6
	OpWriteDAC       = 7
)

const (
	TraceRingSize = 32 // Keep last 32 commands
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTrace captures a command in the ring buffer
func RecordTrace(op uint8, code Code, id int32, value uint32) {
	idx := traceRingHead
	traceRing[idx] = TraceEvent{Op: op, Code: code, ID: id, Value: value}
	traceRingHead = (idx + 1) % TraceRingSize
}

// TraceEvents returns the recorded commands, oldest first
func TraceEvents() []TraceEvent {
	events := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.Op == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

func opName(op uint8) string {
	switch op {
	case OpWritePin:
		return "WRITE_PIN"
	case OpReadPin:
		return "READ_PIN"
	case OpWritePort:
		return "WRITE_PORT"
	case OpReadPort:
		return "READ_PORT"
	case OpSelectFunction:
		return "SELECT_FUNC"
	case OpReadFunction:
		return "READ_FUNC"
	case OpWriteDAC:
		return "WRITE_DAC"
	default:
		return "UNKNOWN"
	}
}

// DumpTrace outputs the trace ring buffer (call on shutdown/error)
func DumpTrace() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[TRACE] === GPIO Trace Dump ===")
	for _, evt := range TraceEvents() {
		debugPrintln("[TRACE] " + opName(evt.Op) +
			" id=" + itoa(int(evt.ID)) +
			" value=" + utoa(evt.Value) +
			" code=" + itoa(int(evt.Code)))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTrace clears the trace buffer
func ClearTrace() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
