package protocol

import (
	"errors"
	"sync/atomic"
)

// ErrMessageTooLong is returned when a payload does not fit in one frame
var ErrMessageTooLong = errors.New("message too long")

// CommandHandler is a function type for handling decoded commands
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the MCU side of the link: it parses host frames, dispatches
// their commands and answers every frame with an ACK/NAK.
type Transport struct {
	scanner

	// Expected sequence from the host (0x10-0x1F); also used for our frames
	nextSequence uint32

	output        OutputBuffer
	handler       CommandHandler
	errorHandler  func(error)
	resetCallback func()
	flushCallback func()
}

// NewTransport creates a new Transport instance
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		nextSequence: MessageDest,
		output:       output,
		handler:      handler,
	}
}

// Receive processes incoming data and pops what it consumed from input
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

loop:
	for {
		msg, rest, ev := t.next(data)
		data = rest
		switch ev {
		case scanNeedMore:
			break loop
		case scanResync:
			t.encodeAckNak()
		case scanFrame:
			expected := uint8(atomic.LoadUint32(&t.nextSequence))
			if msg.Sequence == MessageDest && expected != MessageDest {
				// Host restarted its sequence
				atomic.StoreUint32(&t.nextSequence, MessageDest)
				expected = MessageDest
				if t.resetCallback != nil {
					t.resetCallback()
				}
			}
			if msg.Sequence == expected {
				atomic.StoreUint32(&t.nextSequence, uint32(nextSeq(expected)))
				if err := t.parseFrame(msg.Payload); err != nil && t.errorHandler != nil {
					t.errorHandler(err)
				}
			}
			// A mismatched sequence still gets an ACK: it tells the host what we expect
			t.encodeAckNak()
		}
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// parseFrame dispatches every command in a frame
func (t *Transport) parseFrame(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.setSynchronized(false)
			err = errors.New("command handler panicked")
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.setSynchronized(false)
			return err
		}
		if t.handler != nil {
			if err := t.handler(uint16(cmdID), &frame); err != nil {
				// Remaining arguments can't be located once a handler fails
				return err
			}
		}
	}
	return nil
}

// encodeAckNak writes an empty frame carrying the next expected sequence
// and flushes it immediately.
func (t *Transport) encodeAckNak() {
	ns := uint8(atomic.LoadUint32(&t.nextSequence))
	ack, _ := EncodeMessage(ns, nil)
	t.output.Output(ack)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame encodes a frame whose payload is written by frameData
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})
	frameData(t.output)

	changed := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// SendCommand sends a command (or response) with arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset resets the transport state (after a disconnect/reconnect)
func (t *Transport) Reset() {
	t.setSynchronized(true)
	atomic.StoreUint32(&t.nextSequence, MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets a callback to be called when host reset is detected
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback sets a callback that pushes buffered output to the wire
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

// SetErrorHandler sets a callback for command handler errors
func (t *Transport) SetErrorHandler(handler func(error)) {
	t.errorHandler = handler
}
