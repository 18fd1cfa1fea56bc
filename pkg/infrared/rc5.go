// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

const (
	rc5Unit      = 889 // microseconds per half bit
	rc5Tolerance = 12
	rc5Bits      = 14

	rc5StartBit  = 1 << 13
	rc5FieldBit  = 1 << 12
	rc5ToggleBit = 1 << 11
	rc5AddrPos   = 6
	rc5AddrMask  = 0x1F
	rc5CmdMask   = 0x3F
)

// rc5State is Data(bit) when non-negative; bits arrive from 12 down to 0
// since the first start bit is implied by the opening edge.
type rc5State int8

const (
	rc5Idle  rc5State = -1
	rc5Done  rc5State = -2
	rc5Error rc5State = -3
)

// Rc5Decoder decodes Philips RC5 (and the RC5X extended command range).
//
// The decoder keeps a clock in half-bit units measured from the middle of
// the first start bit. Every pulse advances it by one or two units and the
// level change at an even clock value is the Manchester mid-bit transition
// that carries the bit.
type Rc5Decoder struct {
	spans PulseSpans
	state rc5State
	clock uint32
	bits  uint16

	cmd      Rc5Command
	lastBits uint16
	hasLast  bool
}

// NewRc5Decoder returns a decoder for the given sample rate in Hz.
func NewRc5Decoder(sampleRate uint32) *Rc5Decoder {
	return &Rc5Decoder{
		spans: NewPulseSpans(sampleRate,
			Pulse{Length: rc5Unit, Tolerance: rc5Tolerance},
			Pulse{Length: 2 * rc5Unit, Tolerance: rc5Tolerance},
		),
		state: rc5Idle,
	}
}

// Protocol and Spans implement Decoder.
func (d *Rc5Decoder) Protocol() Protocol { return ProtocolRC5 }
func (d *Rc5Decoder) Spans() PulseSpans  { return d.spans }

// Event feeds one edge and the time since the previous edge.
func (d *Rc5Decoder) Event(rising bool, dt uint32) Status {
	switch {
	case d.state == rc5Idle:
		d.start(rising)

	case d.state >= 0:
		units, ok := d.spans.Classify(dt)
		if !ok {
			// Not an RC5 pulse. A rising edge after an unknown gap may
			// open the next frame.
			d.Reset()
			d.start(rising)
			break
		}
		d.clock += uint32(units) + 1
		if d.clock%2 != 0 {
			break
		}
		// Mid-bit: off to on is a one.
		if rising {
			d.bits |= 1 << uint(d.state)
		}
		if d.state > 0 {
			d.state--
			break
		}
		d.finish()
	}
	return d.Status()
}

func (d *Rc5Decoder) start(rising bool) {
	if !rising {
		return
	}
	d.clock = 0
	d.bits = rc5StartBit
	d.state = rc5Bits - 2
}

func (d *Rc5Decoder) finish() {
	d.cmd = unpackRc5(d.bits)
	d.cmd.Repeat = d.hasLast && d.bits == d.lastBits
	d.lastBits = d.bits
	d.hasLast = true
	d.state = rc5Done
}

// Status reports the decoder state.
func (d *Rc5Decoder) Status() Status {
	switch {
	case d.state >= 0:
		return StatusReceiving
	case d.state == rc5Done:
		return StatusDone
	case d.state == rc5Error:
		return StatusError
	default:
		return StatusIdle
	}
}

// Command returns the decoded frame once Status is StatusDone.
func (d *Rc5Decoder) Command() (Rc5Command, bool) {
	if d.state != rc5Done {
		return Rc5Command{}, false
	}
	return d.cmd, true
}

// Err is always nil: malformed RC5 timing resets the decoder instead of
// raising an error.
func (d *Rc5Decoder) Err() error {
	return nil
}

// Reset returns to idle. The previous frame is kept for repeat detection.
func (d *Rc5Decoder) Reset() {
	d.state = rc5Idle
	d.clock = 0
	d.bits = 0
}

// Rc5Encoder produces RC5 pulse trains.
type Rc5Encoder struct {
	sampleRate uint32
}

// NewRc5Encoder returns an encoder for the given sample rate in Hz.
func NewRc5Encoder(sampleRate uint32) *Rc5Encoder {
	return &Rc5Encoder{sampleRate: sampleRate}
}

// Encode writes the Manchester coded frame into buf.
func (e *Rc5Encoder) Encode(cmd Rc5Command, buf []uint32) (int, error) {
	w := newPulseWriter(buf)
	h := halfWriter{w: &w, unit: rc5Unit, sampleRate: e.sampleRate}

	bits := cmd.pack()
	for i := rc5Bits - 1; i >= 0; i-- {
		one := bits&(1<<i) != 0
		h.half(!one)
		h.half(one)
	}
	h.flush()
	return w.result()
}

// Rc5Command is an RC5 command. Commands 64..127 use the RC5X encoding where
// the second start bit carries the inverted seventh command bit.
type Rc5Command struct {
	Addr   uint8
	Cmd    uint8
	Toggle bool
	// Repeat is set when a frame is identical to the previous one,
	// toggle included, which is how a held button looks.
	Repeat bool
}

func (c Rc5Command) pack() uint16 {
	b := uint16(rc5StartBit) |
		uint16(c.Addr&rc5AddrMask)<<rc5AddrPos |
		uint16(c.Cmd&rc5CmdMask)
	if c.Cmd&0x40 == 0 {
		b |= rc5FieldBit
	}
	if c.Toggle {
		b |= rc5ToggleBit
	}
	return b
}

func unpackRc5(b uint16) Rc5Command {
	c := Rc5Command{
		Addr:   uint8((b >> rc5AddrPos) & rc5AddrMask),
		Cmd:    uint8(b & rc5CmdMask),
		Toggle: b&rc5ToggleBit != 0,
	}
	if b&rc5FieldBit == 0 {
		c.Cmd |= 0x40
	}
	return c
}

func (c Rc5Command) Protocol() Protocol { return ProtocolRC5 }
func (c Rc5Command) Address() uint32    { return uint32(c.Addr) }
func (c Rc5Command) Command() uint32    { return uint32(c.Cmd) }
func (c Rc5Command) IsRepeat() bool     { return c.Repeat }
func (c Rc5Command) Bits() uint64       { return uint64(c.pack()) }
