// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

const (
	rc6Unit      = 444 // microseconds per half bit
	rc6Tolerance = 12
	rc6MaxUnits  = 6
	rc6DataBits  = 16

	rc6LeaderMark  = 6
	rc6LeaderSpace = 2

	// Clock positions in units from the start of the leader.
	rc6StartMid   = 9
	rc6ModeEnd    = 16
	rc6ToggleMid  = 18
	rc6DataStart  = 20
	rc6FirstData  = rc6DataStart + 1
	rc6LastDataAt = rc6FirstData + 2*(rc6DataBits-1)
)

// rc6State is the clock position of the last edge when non-negative.
type rc6State int8

const (
	rc6Idle        rc6State = -1
	rc6Leader      rc6State = -2
	rc6LeaderPause rc6State = -3
	rc6Done        rc6State = -4
	rc6Error       rc6State = -5
)

// Rc6Decoder decodes RC6 mode 0.
//
// Like RC5 it tracks a half-bit clock, but from the start of the leader mark
// so every field sits at a fixed position: the start bit at 8..10, three mode
// bits at 10..16, the double length toggle at 16..20 and the data bits from
// 20 on. An edge at a position where no transition can occur is an error.
type Rc6Decoder struct {
	spans  PulseSpans
	state  rc6State
	kind   ErrorKind
	bits   uint16
	toggle bool

	cmd      Rc6Command
	lastBits uint32
	hasLast  bool
}

// NewRc6Decoder creates an RC6 decoder. Spans are ordered longest first so
// that at low sample rates, where neighbouring spans overlap, a pulse is
// attributed to the longer category only when it reaches it.
func NewRc6Decoder(sampleRate uint32) *Rc6Decoder {
	var pulses [rc6MaxUnits]Pulse
	for i := range pulses {
		pulses[i] = Pulse{Length: uint32(rc6MaxUnits-i) * rc6Unit, Tolerance: rc6Tolerance}
	}
	return &Rc6Decoder{
		spans: NewPulseSpans(sampleRate, pulses[:]...),
		state: rc6Idle,
	}
}

// Protocol and Spans implement Decoder.
func (d *Rc6Decoder) Protocol() Protocol { return ProtocolRC6 }
func (d *Rc6Decoder) Spans() PulseSpans  { return d.spans }

func (d *Rc6Decoder) units(dt uint32) (uint32, bool) {
	i, ok := d.spans.Classify(dt)
	if !ok {
		return 0, false
	}
	return uint32(rc6MaxUnits - i), true
}

// Event feeds one edge and the time since the previous edge.
func (d *Rc6Decoder) Event(rising bool, dt uint32) Status {
	if d.state == rc6Done || d.state == rc6Error {
		return d.Status()
	}
	if d.state == rc6Idle {
		if rising {
			d.state = rc6Leader
		}
		return d.Status()
	}

	units, ok := d.units(dt)
	switch {
	case !ok:
		d.restart(rising)

	case d.state == rc6Leader:
		if rising || units != rc6LeaderMark {
			d.restart(rising)
			break
		}
		d.state = rc6LeaderPause

	case d.state == rc6LeaderPause:
		if !rising || units != rc6LeaderSpace {
			d.restart(rising)
			break
		}
		d.state = rc6LeaderMark + rc6LeaderSpace

	default:
		clock := uint32(d.state) + units
		if clock > rc6LastDataAt {
			d.fail(ErrorClassification)
			break
		}
		d.state = rc6State(clock)
		d.edge(clock, rising)
	}
	return d.Status()
}

// edge interprets a level change at a clock position. Bit values are the
// level after the mid transition: on then off is a one.
func (d *Rc6Decoder) edge(clock uint32, rising bool) {
	switch {
	case clock == rc6StartMid:
		if rising {
			d.fail(ErrorClassification)
		}
	case clock > rc6StartMid && clock <= rc6ModeEnd:
		// Mode bits and their boundaries. Only mode 0 is decoded and
		// the value is not checked.
	case clock == rc6ToggleMid:
		d.toggle = !rising
	case clock >= rc6DataStart:
		if clock%2 == 0 {
			return
		}
		if !rising {
			bit := rc6DataBits - 1 - (clock-rc6FirstData)/2
			d.bits |= 1 << bit
		}
		if clock == rc6LastDataAt {
			d.finish()
		}
	default:
		d.fail(ErrorClassification)
	}
}

func (d *Rc6Decoder) restart(rising bool) {
	d.Reset()
	if rising {
		d.state = rc6Leader
	}
}

func (d *Rc6Decoder) finish() {
	d.cmd = Rc6Command{
		Addr:   uint8(d.bits >> 8),
		Cmd:    uint8(d.bits),
		Toggle: d.toggle,
	}
	b := uint32(d.cmd.Bits())
	d.cmd.Repeat = d.hasLast && b == d.lastBits
	d.lastBits = b
	d.hasLast = true
	d.state = rc6Done
}

func (d *Rc6Decoder) fail(kind ErrorKind) {
	d.kind = kind
	d.state = rc6Error
}

// Status reports the decoder state.
func (d *Rc6Decoder) Status() Status {
	switch {
	case d.state >= 0, d.state == rc6Leader, d.state == rc6LeaderPause:
		return StatusReceiving
	case d.state == rc6Done:
		return StatusDone
	case d.state == rc6Error:
		return StatusError
	default:
		return StatusIdle
	}
}

// Command returns the decoded frame once Status is StatusDone.
func (d *Rc6Decoder) Command() (Rc6Command, bool) {
	if d.state != rc6Done {
		return Rc6Command{}, false
	}
	return d.cmd, true
}

// Err describes why the last frame was rejected.
func (d *Rc6Decoder) Err() error {
	if d.state != rc6Error {
		return nil
	}
	return decodeErr(ProtocolRC6, d.kind)
}

// Reset returns to idle. The previous frame is kept for repeat detection.
func (d *Rc6Decoder) Reset() {
	d.state = rc6Idle
	d.kind = ErrorNone
	d.bits = 0
	d.toggle = false
}

// Rc6Encoder produces RC6 mode 0 pulse trains.
type Rc6Encoder struct {
	sampleRate uint32
}

// NewRc6Encoder returns an encoder for the given sample rate in Hz.
func NewRc6Encoder(sampleRate uint32) *Rc6Encoder {
	return &Rc6Encoder{sampleRate: sampleRate}
}

// Encode writes the leader, mode 0 header and frame into buf.
func (e *Rc6Encoder) Encode(cmd Rc6Command, buf []uint32) (int, error) {
	w := newPulseWriter(buf)
	h := halfWriter{w: &w, unit: rc6Unit, sampleRate: e.sampleRate}

	h.halves(rc6LeaderMark, true)
	h.halves(rc6LeaderSpace, false)

	// Start bit is always one.
	h.half(true)
	h.half(false)

	// Mode 0.
	for range 3 {
		h.half(false)
		h.half(true)
	}

	h.halves(2, cmd.Toggle)
	h.halves(2, !cmd.Toggle)

	data := uint16(cmd.Addr)<<8 | uint16(cmd.Cmd)
	for i := rc6DataBits - 1; i >= 0; i-- {
		one := data&(1<<i) != 0
		h.half(one)
		h.half(!one)
	}
	h.flush()
	return w.result()
}

// Rc6Command is an RC6 mode 0 command.
type Rc6Command struct {
	Addr   uint8
	Cmd    uint8
	Toggle bool
	// Repeat is set when a frame is identical to the previous one.
	Repeat bool
}

func (c Rc6Command) Protocol() Protocol { return ProtocolRC6 }
func (c Rc6Command) Address() uint32    { return uint32(c.Addr) }
func (c Rc6Command) Command() uint32    { return uint32(c.Cmd) }
func (c Rc6Command) IsRepeat() bool     { return c.Repeat }

// Bits returns the toggle bit followed by address and command.
func (c Rc6Command) Bits() uint64 {
	b := uint64(c.Addr)<<8 | uint64(c.Cmd)
	if c.Toggle {
		b |= 1 << rc6DataBits
	}
	return b
}
