package mcu

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"lpcio/host/serial"
	"lpcio/protocol"
)

// identify is fixed at ID 1 so the dictionary can be fetched before it is known
const identifyID = 1

// ErrNotConnected is returned by calls made before Connect
var ErrNotConnected = errors.New("not connected to MCU")

// ErrNoDictionary is returned by GPIO calls made before RetrieveDictionary
var ErrNoDictionary = errors.New("dictionary not loaded")

// MCU is a host-side client for the GPIO firmware
type MCU struct {
	transport *protocol.HostTransport
	port      serial.Port

	dictionary     *Dictionary
	dictionaryData []byte

	// Message names (first word of the format) to IDs and back
	commandIDs    map[string]uint16
	responseNames map[uint16]string

	timeout time.Duration
	out     io.Writer

	// One request/response exchange at a time
	mu sync.Mutex

	connected bool
}

// Dictionary represents the parsed MCU dictionary
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]string         `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]int `json:"enumerations,omitempty"`
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{
		timeout: time.Second,
		out:     io.Discard,
	}
}

// SetTimeout sets how long to wait for each response
func (m *MCU) SetTimeout(d time.Duration) {
	m.timeout = d
}

// SetOutput sets where progress messages are written (default: discarded)
func (m *MCU) SetOutput(w io.Writer) {
	m.out = w
}

// Connect connects to an MCU via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to an MCU with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.ConnectPort(port)

	// Give the board time to initialize (if it just powered on)
	time.Sleep(100 * time.Millisecond)
	return nil
}

// ConnectPort attaches to an already open port
func (m *MCU) ConnectPort(port serial.Port) {
	m.port = port
	m.transport = protocol.NewHostTransport(port)
	m.connected = true
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			return err
		}
	}
	m.connected = false
	return nil
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// RetrieveDictionary retrieves the complete dictionary from the MCU
func (m *MCU) RetrieveDictionary() error {
	if !m.connected {
		return ErrNotConnected
	}

	fmt.Fprintln(m.out, "Retrieving dictionary from MCU...")

	var dictBuffer bytes.Buffer
	offset := uint32(0)
	chunkSize := uint8(40)
	maxIterations := 1000

	for i := 0; i < maxIterations; i++ {
		chunk, err := m.sendIdentify(offset, chunkSize)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		if len(chunk) == 0 {
			break
		}

		dictBuffer.Write(chunk)
		offset += uint32(len(chunk))

		if i%10 == 0 {
			fmt.Fprintf(m.out, "  Retrieved %d bytes...\n", offset)
		}
		if len(chunk) < int(chunkSize) {
			break
		}
	}

	data, err := inflate(dictBuffer.Bytes())
	if err != nil {
		return fmt.Errorf("failed to decompress dictionary: %w", err)
	}
	fmt.Fprintf(m.out, "Dictionary retrieved: %d bytes (%d compressed)\n", len(data), dictBuffer.Len())
	m.dictionaryData = data

	if err := m.parseDictionary(); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	return nil
}

// sendIdentify sends an identify command and waits for response
func (m *MCU) sendIdentify(offset uint32, count uint8) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transport.DrainResponses()
	err := m.transport.SendCommand(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send identify command: %w", err)
	}

	resp, err := m.transport.ReceiveResponse(m.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to receive identify response: %w", err)
	}

	payload := resp.Payload
	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response command ID: %w", err)
	}
	if cmdID != 0 {
		return nil, fmt.Errorf("unexpected response command ID: %d (expected 0)", cmdID)
	}

	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response offset: %w", err)
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}

	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}
	return data, nil
}

// inflate decompresses a zlib dictionary. Firmware that sends plain JSON
// is accepted as is.
func inflate(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] == '{' {
		return data, nil
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// parseDictionary parses the dictionary JSON and indexes message names
func (m *MCU) parseDictionary() error {
	dict := &Dictionary{}
	if err := json.Unmarshal(m.dictionaryData, dict); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	m.commandIDs = make(map[string]uint16, len(dict.Commands))
	for format, id := range dict.Commands {
		m.commandIDs[messageName(format)] = uint16(id)
	}
	m.responseNames = make(map[uint16]string, len(dict.Responses))
	for format, id := range dict.Responses {
		m.responseNames[uint16(id)] = messageName(format)
	}

	m.dictionary = dict
	return nil
}

// messageName returns the first word of a dictionary format string
func messageName(format string) string {
	if i := strings.IndexByte(format, ' '); i >= 0 {
		return format[:i]
	}
	return format
}

// GetDictionary returns the parsed dictionary
func (m *MCU) GetDictionary() *Dictionary {
	return m.dictionary
}

// GetDictionaryRaw returns the raw dictionary data
func (m *MCU) GetDictionaryRaw() []byte {
	return m.dictionaryData
}

// PrintDictionary writes a summary of the dictionary
func (m *MCU) PrintDictionary(w io.Writer) {
	if m.dictionary == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}

	fmt.Fprintln(w, "=== MCU Dictionary ===")
	fmt.Fprintf(w, "Version: %s\n", m.dictionary.Version)
	fmt.Fprintf(w, "Build: %s\n", m.dictionary.BuildVersions)

	fmt.Fprintln(w, "\nConfig:")
	for _, k := range sortedKeys(m.dictionary.Config) {
		fmt.Fprintf(w, "  %s = %s\n", k, m.dictionary.Config[k])
	}

	printByID(w, "Commands", m.dictionary.Commands)
	printByID(w, "Responses", m.dictionary.Responses)

	if len(m.dictionary.Enumerations) > 0 {
		fmt.Fprintf(w, "\nEnumerations (%d):\n", len(m.dictionary.Enumerations))
		for _, name := range sortedKeys(m.dictionary.Enumerations) {
			fmt.Fprintf(w, "  %s: %d values\n", name, len(m.dictionary.Enumerations[name]))
		}
	}
}

func printByID(w io.Writer, title string, msgs map[string]int) {
	formats := make([]string, 0, len(msgs))
	for f := range msgs {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return msgs[formats[i]] < msgs[formats[j]] })

	fmt.Fprintf(w, "\n%s (%d):\n", title, len(msgs))
	for _, f := range formats {
		fmt.Fprintf(w, "  [%d] %s\n", msgs[f], f)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SendCommand sends a command by name without waiting for a response
func (m *MCU) SendCommand(name string, args func(output protocol.OutputBuffer)) error {
	cmdID, err := m.lookup(name)
	if err != nil {
		return err
	}
	return m.transport.SendCommand(cmdID, args)
}

func (m *MCU) lookup(name string) (uint16, error) {
	if !m.connected {
		return 0, ErrNotConnected
	}
	if m.dictionary == nil {
		return 0, ErrNoDictionary
	}
	cmdID, ok := m.commandIDs[name]
	if !ok {
		return 0, fmt.Errorf("unknown command: %s", name)
	}
	return cmdID, nil
}

// request sends a command with integer arguments and decodes the named reply
func (m *MCU) request(name, reply string, args ...int32) ([]int32, error) {
	cmdID, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.transport.DrainResponses()
	err = m.transport.SendCommandWithTimeout(cmdID, func(output protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQInt(output, a)
		}
	}, m.timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	resp, err := m.transport.ReceiveResponse(m.timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	payload := resp.Payload
	respID, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	if got := m.responseNames[uint16(respID)]; got != reply {
		return nil, fmt.Errorf("%s: expected %s, got %q (id %d)", name, reply, got, respID)
	}

	var values []int32
	for len(payload) > 0 {
		v, err := protocol.DecodeVLQInt(&payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", reply, err)
		}
		values = append(values, v)
	}
	return values, nil
}
