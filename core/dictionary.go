package core

import (
	"sort"
	"sync"

	"lpcio/tinycompress"
)

// Constant represents a firmware constant exposed to the host
type Constant struct {
	Name  string
	Value interface{} // string, int or uint32
}

// Enumeration maps symbolic names onto integer values (e.g. pin names onto pin ids)
type Enumeration struct {
	Name   string
	Values map[string]int
}

// Dictionary manages the data dictionary served to the host by identify
type Dictionary struct {
	mu            sync.RWMutex
	constants     map[string]*Constant
	enumerations  map[string]*Enumeration
	commandReg    *CommandRegistry
	version       string
	buildVersions string
	cached        []byte // JSON
	compressed    []byte // zlib stream of cached, served by identify
}

// NewDictionary creates a new dictionary over a command registry
func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:     make(map[string]*Constant),
		enumerations:  make(map[string]*Enumeration),
		commandReg:    cmdReg,
		version:       "lpcio-" + Version,
		buildVersions: "go-tinygo",
	}
}

// AddConstant adds a constant to the dictionary
func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{Name: name, Value: value}
	d.invalidateLocked()
}

// AddEnumeration adds an enumeration to the dictionary
func (d *Dictionary) AddEnumeration(name string, values map[string]int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Copy so the caller's map can't change the served dictionary
	valuesCopy := make(map[string]int, len(values))
	for k, v := range values {
		valuesCopy[k] = v
	}
	d.enumerations[name] = &Enumeration{Name: name, Values: valuesCopy}
	d.invalidateLocked()
}

// SetVersion sets the firmware version string
func (d *Dictionary) SetVersion(version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.invalidateLocked()
}

// SetBuildVersions sets the build versions string
func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = versions
	d.invalidateLocked()
}

// BuildDictionary builds and caches the dictionary (call after all commands registered)
func (d *Dictionary) BuildDictionary() {
	// Fetch commands before taking our lock: registry and dictionary locks are
	// never held together.
	commands, responses := d.commandReg.GetCommandsAndResponses()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = d.buildJSONLocked(commands, responses)
	d.compressed = tinycompress.Compress(d.cached)
	DebugPrintln("[BuildDict] " + itoa(len(commands)) + " commands, " +
		itoa(len(responses)) + " responses, " + itoa(len(d.cached)) + " bytes, " +
		itoa(len(d.compressed)) + " compressed")
}

func (d *Dictionary) invalidateLocked() {
	d.cached = nil
	d.compressed = nil
}

// Generate returns the dictionary JSON, building it if needed
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}
	d.BuildDictionary()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// buildJSONLocked builds the Klipper-style JSON dictionary (caller holds lock)
func (d *Dictionary) buildJSONLocked(commands, responses map[string]int) []byte {
	result := make([]byte, 0, 1024)

	result = append(result, `{"version":`...)
	result = appendString(result, d.version)
	result = append(result, `,"build_versions":`...)
	result = appendString(result, d.buildVersions)

	config := make(map[string]string, len(d.constants))
	for name, c := range d.constants {
		config[name] = valueToString(c.Value)
	}
	result = append(result, `,"config":`...)
	result = appendStringObject(result, config)

	result = append(result, `,"commands":`...)
	result = appendIntObject(result, commands)
	result = append(result, `,"responses":`...)
	result = appendIntObject(result, responses)

	if len(d.enumerations) > 0 {
		names := make([]string, 0, len(d.enumerations))
		for name := range d.enumerations {
			names = append(names, name)
		}
		sort.Strings(names)

		result = append(result, `,"enumerations":{`...)
		for i, name := range names {
			if i > 0 {
				result = append(result, ',')
			}
			result = appendString(result, name)
			result = append(result, ':')
			result = appendIntObject(result, d.enumerations[name].Values)
		}
		result = append(result, '}')
	}

	return append(result, '}')
}

func appendString(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b = append(b, '\\')
		}
		b = append(b, s[i])
	}
	return append(b, '"')
}

// appendIntObject writes {"key":n,...} ordered by value then key
func appendIntObject(b []byte, m map[string]int) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] < m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	b = append(b, '{')
	for i, k := range keys {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendString(b, k)
		b = append(b, ':')
		b = append(b, itoa(m[k])...)
	}
	return append(b, '}')
}

// appendStringObject writes {"key":"value",...} ordered by key
func appendStringObject(b []byte, m map[string]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b = append(b, '{')
	for i, k := range keys {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendString(b, k)
		b = append(b, ':')
		b = appendString(b, m[k])
	}
	return append(b, '}')
}

// Compressed returns the zlib stream identify serves, building it if needed
func (d *Dictionary) Compressed() []byte {
	d.mu.RLock()
	compressed := d.compressed
	d.mu.RUnlock()
	if compressed != nil {
		return compressed
	}
	d.BuildDictionary()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.compressed
}

// GetChunk returns a copy of count bytes of the compressed dictionary
// starting at offset. Past the end it returns an empty slice, which ends
// the host's identify loop.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Compressed()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}
