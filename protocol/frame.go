package protocol

import (
	"bytes"
	"sync/atomic"
)

type scanEvent uint8

const (
	scanNeedMore scanEvent = iota // no complete frame in the data
	scanFrame                     // a valid frame was extracted
	scanResync                    // a sync byte was found after loss of sync
)

// scanner extracts frames from a byte stream, dropping to unsynchronized mode
// on any malformed frame until the next 0x7E.
type scanner struct {
	desynced uint32 // atomic bool, zero value is synchronized
}

func (s *scanner) synchronized() bool {
	return atomic.LoadUint32(&s.desynced) == 0
}

func (s *scanner) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&s.desynced, 0)
	} else {
		atomic.StoreUint32(&s.desynced, 1)
	}
}

// next returns the first event found in data and the unconsumed remainder.
// The returned Message's Payload aliases data.
func (s *scanner) next(data []byte) (Message, []byte, scanEvent) {
	for len(data) > 0 {
		if !s.synchronized() {
			i := bytes.IndexByte(data, MessageValueSync)
			if i < 0 {
				return Message{}, nil, scanNeedMore
			}
			s.setSynchronized(true)
			return Message{}, data[i+1:], scanResync
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			s.setSynchronized(false)
			continue
		}
		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			s.setSynchronized(false)
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			s.setSynchronized(false)
			continue
		}
		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			s.setSynchronized(false)
			continue
		}

		msg := Message{
			Length:   uint8(msgLen),
			Sequence: seq,
			Payload:  data[MessageHeaderSize : msgLen-MessageTrailerSize],
			CRC:      frameCRC,
		}
		return msg, data[msgLen:], scanFrame
	}
	return Message{}, data, scanNeedMore
}

// EncodeMessage builds a complete frame around payload
func EncodeMessage(seq uint8, payload []byte) ([]byte, error) {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil, ErrMessageTooLong
	}
	msg := make([]byte, 0, msgLen)
	msg = append(msg, uint8(msgLen), seq)
	msg = append(msg, payload...)
	crc := CRC16(msg)
	return append(msg, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}
