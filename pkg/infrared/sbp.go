// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

// Samsung Blu-ray timing, microseconds.
const (
	sbpHeaderMark   = 4500
	sbpHeaderSpace  = 4500
	sbpBitMark      = 500
	sbpZeroSpace    = 500
	sbpOneSpace     = 1500
	sbpDividerSpace = 4500
	sbpTolerance    = 10

	sbpAddrBits = 16
	sbpDataBits = 20
	// The low nibble of the data field is padding.
	sbpDataPad = 4
)

const (
	sbpSync = iota
	sbpDivider
	sbpZero
	sbpOne
)

// sbpState counts received bits when non-negative: 0..15 are address bits,
// sbpAwaitDivider separates the fields and the data bits follow.
type sbpState int8

const (
	sbpIdle  sbpState = -1
	sbpDone  sbpState = -2
	sbpError sbpState = -3

	sbpAwaitDivider sbpState = sbpAddrBits
	sbpFirstData    sbpState = sbpAwaitDivider + 1
	sbpLastData     sbpState = sbpFirstData + sbpDataBits - 1
)

// SbpDecoder decodes the Samsung Blu-ray player protocol: a 16-bit address,
// a divider pulse and a 20-bit data field holding the command and its
// complement.
type SbpDecoder struct {
	spans PulseSpans
	state sbpState
	kind  ErrorKind
	addr  uint16
	data  uint32
	mark  uint32
	cmd   SbpCommand
}

// NewSbpDecoder returns a decoder for the given sample rate in Hz.
func NewSbpDecoder(sampleRate uint32) *SbpDecoder {
	return &SbpDecoder{
		spans: NewPulseSpans(sampleRate,
			Pulse{Length: sbpHeaderMark + sbpHeaderSpace, Tolerance: sbpTolerance},
			Pulse{Length: sbpBitMark + sbpDividerSpace, Tolerance: sbpTolerance},
			Pulse{Length: sbpBitMark + sbpZeroSpace, Tolerance: sbpTolerance},
			Pulse{Length: sbpBitMark + sbpOneSpace, Tolerance: sbpTolerance},
		),
		state: sbpIdle,
	}
}

// Protocol and Spans implement Decoder.
func (d *SbpDecoder) Protocol() Protocol { return ProtocolSBP }
func (d *SbpDecoder) Spans() PulseSpans  { return d.spans }

// Event feeds one edge and the time since the previous edge.
func (d *SbpDecoder) Event(rising bool, dt uint32) Status {
	if !rising {
		d.mark = dt
		return d.Status()
	}
	pulse, ok := d.spans.Classify(addSat(d.mark, dt))
	d.mark = 0

	switch {
	case d.state == sbpIdle:
		if ok && pulse == sbpSync {
			d.addr, d.data = 0, 0
			d.state = 0
		}

	case d.state == sbpAwaitDivider:
		if !ok || pulse != sbpDivider {
			d.fail(ErrorClassification)
			break
		}
		d.state++

	case d.state >= 0:
		if !ok || (pulse != sbpZero && pulse != sbpOne) {
			d.fail(ErrorClassification)
			break
		}
		one := pulse == sbpOne
		if d.state < sbpAwaitDivider {
			if one {
				d.addr |= 1 << uint(d.state)
			}
			d.state++
			break
		}
		if one {
			d.data |= 1 << uint(d.state-sbpFirstData)
		}
		if d.state < sbpLastData {
			d.state++
			break
		}
		cmd, valid := unpackSbp(d.addr, d.data)
		if !valid {
			d.fail(ErrorValidation)
			break
		}
		d.cmd = cmd
		d.state = sbpDone
	}
	return d.Status()
}

func (d *SbpDecoder) fail(kind ErrorKind) {
	d.kind = kind
	d.state = sbpError
}

// Status reports the decoder state.
func (d *SbpDecoder) Status() Status {
	switch {
	case d.state >= 0:
		return StatusReceiving
	case d.state == sbpDone:
		return StatusDone
	case d.state == sbpError:
		return StatusError
	default:
		return StatusIdle
	}
}

// Command returns the decoded frame once Status is StatusDone.
func (d *SbpDecoder) Command() (SbpCommand, bool) {
	if d.state != sbpDone {
		return SbpCommand{}, false
	}
	return d.cmd, true
}

// Err describes why the last frame was rejected.
func (d *SbpDecoder) Err() error {
	if d.state != sbpError {
		return nil
	}
	return decodeErr(ProtocolSBP, d.kind)
}

// Reset returns to Idle.
func (d *SbpDecoder) Reset() {
	d.state = sbpIdle
	d.kind = ErrorNone
	d.addr, d.data, d.mark = 0, 0, 0
}

// SbpEncoder produces Samsung Blu-ray pulse trains.
type SbpEncoder struct {
	headerMark   uint32
	headerSpace  uint32
	dividerSpace uint32
	data         distanceTicks
}

// NewSbpEncoder returns an encoder for the given sample rate in Hz.
func NewSbpEncoder(sampleRate uint32) *SbpEncoder {
	return &SbpEncoder{
		headerMark:   Scale(sbpHeaderMark, sampleRate),
		headerSpace:  Scale(sbpHeaderSpace, sampleRate),
		dividerSpace: Scale(sbpDividerSpace, sampleRate),
		data:         newDistanceTicks(sbpBitMark, sbpZeroSpace, sbpOneSpace, sampleRate),
	}
}

// Encode writes the frame into buf.
func (e *SbpEncoder) Encode(cmd SbpCommand, buf []uint32) (int, error) {
	w := newPulseWriter(buf)
	w.put(e.headerMark)
	w.put(e.headerSpace)
	for i := range sbpAddrBits {
		w.bit(e.data, cmd.Addr&(1<<i) != 0)
	}
	w.put(e.data.mark)
	w.put(e.dividerSpace)
	data := cmd.data()
	for i := range sbpDataBits {
		w.bit(e.data, data&(1<<i) != 0)
	}
	w.put(e.data.mark)
	return w.result()
}

// SbpCommand is a Samsung Blu-ray command.
type SbpCommand struct {
	Addr uint16
	Cmd  uint8
}

func (c SbpCommand) data() uint32 {
	return uint32(c.Cmd)<<sbpDataPad | uint32(^c.Cmd)<<(sbpDataPad+8)
}

func unpackSbp(addr uint16, data uint32) (SbpCommand, bool) {
	cmd := uint8(data >> sbpDataPad)
	inv := uint8(data >> (sbpDataPad + 8))
	if cmd^inv != 0xFF {
		return SbpCommand{}, false
	}
	return SbpCommand{Addr: addr, Cmd: cmd}, true
}

func (c SbpCommand) Protocol() Protocol { return ProtocolSBP }
func (c SbpCommand) Address() uint32    { return uint32(c.Addr) }
func (c SbpCommand) Command() uint32    { return uint32(c.Cmd) }
func (c SbpCommand) IsRepeat() bool     { return false }
func (c SbpCommand) Bits() uint64       { return uint64(c.Addr) | uint64(c.data())<<sbpAddrBits }
