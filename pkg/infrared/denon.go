// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

// Denon timing, microseconds.
const (
	denonHeaderMark  = 3400
	denonHeaderSpace = 1600
	denonBitMark     = 480
	denonZeroSpace   = 360
	denonOneSpace    = 1200
	denonTolerance   = 10

	denonBits = 48
)

const (
	denonSync = iota
	denonZero
	denonOne
)

// denonState is Receiving(bit) when non-negative.
type denonState int8

const (
	denonIdle  denonState = -1
	denonDone  denonState = -2
	denonError denonState = -3
)

// DenonDecoder decodes the 48-bit Denon protocol. There is no check field
// so any complete frame is accepted.
type DenonDecoder struct {
	spans PulseSpans
	state denonState
	bits  uint64
	mark  uint32
}

// NewDenonDecoder returns a decoder for the given sample rate in Hz.
func NewDenonDecoder(sampleRate uint32) *DenonDecoder {
	return &DenonDecoder{
		spans: NewPulseSpans(sampleRate,
			Pulse{Length: denonHeaderMark + denonHeaderSpace, Tolerance: denonTolerance},
			Pulse{Length: denonBitMark + denonZeroSpace, Tolerance: denonTolerance},
			Pulse{Length: denonBitMark + denonOneSpace, Tolerance: denonTolerance},
		),
		state: denonIdle,
	}
}

// Protocol and Spans implement Decoder.
func (d *DenonDecoder) Protocol() Protocol { return ProtocolDenon }
func (d *DenonDecoder) Spans() PulseSpans  { return d.spans }

// Event feeds one edge and the time since the previous edge.
func (d *DenonDecoder) Event(rising bool, dt uint32) Status {
	if !rising {
		d.mark = dt
		return d.Status()
	}
	pulse, ok := d.spans.Classify(addSat(d.mark, dt))
	d.mark = 0

	switch {
	case d.state == denonIdle:
		if ok && pulse == denonSync {
			d.bits = 0
			d.state = 0
		}
	case d.state >= 0:
		if !ok || pulse == denonSync {
			d.state = denonError
			break
		}
		if pulse == denonOne {
			d.bits |= 1 << uint(d.state)
		}
		if d.state < denonBits-1 {
			d.state++
			break
		}
		d.state = denonDone
	}
	return d.Status()
}

// Status reports the decoder state.
func (d *DenonDecoder) Status() Status {
	switch {
	case d.state >= 0:
		return StatusReceiving
	case d.state == denonDone:
		return StatusDone
	case d.state == denonError:
		return StatusError
	default:
		return StatusIdle
	}
}

// Command returns the decoded frame once Status is StatusDone.
func (d *DenonDecoder) Command() (DenonCommand, bool) {
	if d.state != denonDone {
		return DenonCommand{}, false
	}
	return DenonCommand{Raw: d.bits}, true
}

// Err reports a classification failure; Denon frames cannot fail validation.
func (d *DenonDecoder) Err() error {
	if d.state != denonError {
		return nil
	}
	return decodeErr(ProtocolDenon, ErrorClassification)
}

// Reset returns to Idle.
func (d *DenonDecoder) Reset() {
	d.state = denonIdle
	d.bits = 0
	d.mark = 0
}

// DenonEncoder produces Denon pulse trains.
type DenonEncoder struct {
	headerMark  uint32
	headerSpace uint32
	data        distanceTicks
}

// NewDenonEncoder returns an encoder for the given sample rate in Hz.
func NewDenonEncoder(sampleRate uint32) *DenonEncoder {
	return &DenonEncoder{
		headerMark:  Scale(denonHeaderMark, sampleRate),
		headerSpace: Scale(denonHeaderSpace, sampleRate),
		data:        newDistanceTicks(denonBitMark, denonZeroSpace, denonOneSpace, sampleRate),
	}
}

// Encode writes the header and 48 data bits into buf.
func (e *DenonEncoder) Encode(cmd DenonCommand, buf []uint32) (int, error) {
	w := newPulseWriter(buf)
	w.put(e.headerMark)
	w.put(e.headerSpace)
	for i := range denonBits {
		w.bit(e.data, cmd.Raw&(1<<i) != 0)
	}
	w.put(e.data.mark)
	return w.result()
}

// DenonCommand is a raw 48-bit Denon frame.
type DenonCommand struct {
	Raw uint64
}

// NewDenonCommand builds a frame from a 16-bit address and 32-bit command.
func NewDenonCommand(addr uint16, cmd uint32) DenonCommand {
	return DenonCommand{Raw: uint64(addr) | uint64(cmd)<<16}
}

func (c DenonCommand) Protocol() Protocol { return ProtocolDenon }
func (c DenonCommand) Address() uint32    { return uint32(c.Raw & 0xFFFF) }
func (c DenonCommand) Command() uint32    { return uint32(c.Raw >> 16) }
func (c DenonCommand) IsRepeat() bool     { return false }
func (c DenonCommand) Bits() uint64       { return c.Raw & (1<<denonBits - 1) }
