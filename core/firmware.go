package core

import (
	"sync/atomic"

	"lpcio/protocol"
)

// Version is the firmware version reported in the data dictionary
const Version = "0.1.0"

// Firmware ties the command registry, data dictionary, transport and mapper
// together. A target feeds received bytes to Receive and ships Output.
type Firmware struct {
	registry   *CommandRegistry
	dictionary *Dictionary
	mapper     *Mapper
	transport  *protocol.Transport
	output     *protocol.ScratchOutput

	isShutdown uint32 // atomic bool
}

// NewFirmware builds a firmware instance over a register file with every
// command registered and the dictionary built.
func NewFirmware(regs RegisterFile) *Firmware {
	fw := &Firmware{
		registry: NewCommandRegistry(),
		mapper:   NewMapper(regs),
		output:   protocol.NewScratchOutput(),
	}
	fw.dictionary = NewDictionary(fw.registry)
	fw.transport = protocol.NewTransport(fw.output, fw.registry.Dispatch)
	fw.transport.SetErrorHandler(func(err error) {
		DebugPrintln("[CMD] " + err.Error())
	})
	fw.transport.SetResetCallback(func() {
		fw.output.Reset()
		fw.ResetState()
	})

	fw.initCoreCommands()
	fw.initGPIOCommands()
	fw.registerPins()

	fw.dictionary.BuildDictionary()
	return fw
}

// Receive processes bytes received from the host
func (fw *Firmware) Receive(input protocol.InputBuffer) {
	fw.transport.Receive(input)
}

// Output returns the buffer holding frames waiting to be sent to the host.
// The target writes Result() to the wire and then calls Reset().
func (fw *Firmware) Output() *protocol.ScratchOutput { return fw.output }

// Transport returns the MCU-side transport
func (fw *Firmware) Transport() *protocol.Transport { return fw.transport }

// Registry returns the command registry
func (fw *Firmware) Registry() *CommandRegistry { return fw.registry }

// Dictionary returns the data dictionary
func (fw *Firmware) Dictionary() *Dictionary { return fw.dictionary }

// Mapper returns the GPIO mapper the commands operate on
func (fw *Firmware) Mapper() *Mapper { return fw.mapper }

// IsShutdown returns true after emergency_stop until clear_shutdown
func (fw *Firmware) IsShutdown() bool {
	return atomic.LoadUint32(&fw.isShutdown) != 0
}

// ResetState clears the shutdown flag (host reconnect)
func (fw *Firmware) ResetState() {
	atomic.StoreUint32(&fw.isShutdown, 0)
}

// SendResponse sends a registered response message
func (fw *Firmware) SendResponse(responseName string, args func(output protocol.OutputBuffer)) {
	cmd, ok := fw.registry.GetCommandByName(responseName)
	if !ok {
		// All responses are registered in NewFirmware
		panic("Response not registered: " + responseName)
	}
	fw.transport.SendCommand(cmd.ID, args)
}

// initCoreCommands registers the protocol-level commands.
// identify_response and identify must be IDs 0 and 1: the host bootstraps
// with those IDs before it has the dictionary.
func (fw *Firmware) initCoreCommands() {
	fw.registry.RegisterResponse("identify_response", "offset=%u data=%*s") // ID 0
	fw.registry.Register("identify", "offset=%u count=%c", fw.handleIdentify) // ID 1

	fw.registry.Register("get_config", "", fw.handleGetConfig)
	fw.registry.Register("emergency_stop", "", fw.handleEmergencyStop)
	fw.registry.Register("clear_shutdown", "", fw.handleClearShutdown)
	fw.registry.RegisterResponse("config", "is_shutdown=%c trace_count=%c")

	fw.dictionary.AddConstant("MCU", "lpc2148")
	fw.dictionary.AddConstant("CLOCK_FREQ", uint32(60000000))
}

// handleIdentify returns a chunk of the data dictionary
func (fw *Firmware) handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := fw.dictionary.GetChunk(offset, uint8(count))
	fw.SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

func (fw *Firmware) handleGetConfig(data *[]byte) error {
	var shutdown uint32
	if fw.IsShutdown() {
		shutdown = 1
	}
	traces := uint32(len(TraceEvents()))
	fw.SendResponse("config", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, shutdown)
		protocol.EncodeVLQUint(output, traces)
	})
	return nil
}

// handleEmergencyStop latches shutdown; GPIO commands are refused until clear_shutdown
func (fw *Firmware) handleEmergencyStop(data *[]byte) error {
	atomic.StoreUint32(&fw.isShutdown, 1)
	DumpTrace()
	return nil
}

func (fw *Firmware) handleClearShutdown(data *[]byte) error {
	fw.ResetState()
	return nil
}

// registerPins publishes pin names and the numbering constants
func (fw *Firmware) registerPins() {
	names := make(map[string]int, 2*PinsPerBank)
	for _, p := range AllPins() {
		names[p.Name()] = int(p)
	}
	fw.dictionary.AddEnumeration("pin", names)

	fw.dictionary.AddConstant("GPIO_BANKS", 2)
	fw.dictionary.AddConstant("GPIO_BANK_B_BASE", int(BankBBase))
	fw.dictionary.AddConstant("DAC_MAX", DACMax)
	fw.dictionary.AddConstant("FUNCTION_MAX", FunctionMax)
}
