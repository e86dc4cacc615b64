package core

// Global register file used by firmware built without an explicit Mapper.
var registerFile RegisterFile

// SetRegisterFile is called by target-specific code to install its register backend.
func SetRegisterFile(rf RegisterFile) {
	registerFile = rf
}

// MustRegisters returns the configured register file or panics if missing.
func MustRegisters() RegisterFile {
	if registerFile == nil {
		panic("register file not configured")
	}
	return registerFile
}

// MustMapper returns a Mapper over the configured register file.
func MustMapper() *Mapper {
	return NewMapper(MustRegisters())
}

// MustFirmware builds the firmware over the configured register file.
func MustFirmware() *Firmware {
	return NewFirmware(MustRegisters())
}
