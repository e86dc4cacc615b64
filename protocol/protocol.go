// Package protocol implements the Klipper-style framing used between lpcio
// firmware and its host tools: VLQ-encoded arguments, CRC16 and 4-bit sequence
// numbers with ACK frames.
package protocol

// Frame layout: <len><seq> payload... <crc_hi><crc_lo><0x7E>
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F

	// MessageMax is the size of a ScratchOutput; it holds several frames
	MessageMax = 512
)

// Message is a parsed frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// nextSeq advances a sequence byte, keeping the destination bits
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
