// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "math/bits"

// necTiming holds the pulse lengths of one NEC variant in microseconds.
type necTiming struct {
	headerMark  uint32
	headerSpace uint32
	repeatSpace uint32
	bitMark     uint32
	zeroSpace   uint32
	oneSpace    uint32
}

var (
	necStandardTiming = necTiming{9000, 4500, 2250, 560, 560, 1690}
	necSamsungTiming  = necTiming{4500, 4500, 2250, 560, 560, 1690}
)

const (
	necHeaderTolerance = 7
	necDataTolerance   = 5
)

// Pulse categories, in classification order.
const (
	necSync = iota
	necRepeat
	necZero
	necOne
)

func (t necTiming) spans(sampleRate uint32) PulseSpans {
	return NewPulseSpans(sampleRate,
		Pulse{Length: t.headerMark + t.headerSpace, Tolerance: necHeaderTolerance},
		Pulse{Length: t.headerMark + t.repeatSpace, Tolerance: necHeaderTolerance},
		Pulse{Length: t.bitMark + t.zeroSpace, Tolerance: necDataTolerance},
		Pulse{Length: t.bitMark + t.oneSpace, Tolerance: necDataTolerance},
	)
}

// necVariant binds a timing to the 32-bit payload layout of one command type.
type necVariant[C Command] struct {
	protocol Protocol
	timing   necTiming
	unpack   func(bits uint32, repeat bool) (C, bool)
	pack     func(cmd C) uint32
}

var (
	necStandard = necVariant[NecCommand]{ProtocolNEC, necStandardTiming, unpackNec, NecCommand.pack}
	necSamsung  = necVariant[NecSamsungCommand]{ProtocolNECSamsung, necSamsungTiming, unpackNecSamsung, NecSamsungCommand.pack}
	nec16       = necVariant[Nec16Command]{ProtocolNEC16, necStandardTiming, unpackNec16, Nec16Command.pack}
	necApple    = necVariant[NecAppleCommand]{ProtocolNECApple, necStandardTiming, unpackNecApple, NecAppleCommand.pack}
	necRaw      = necVariant[NecRawCommand]{ProtocolNECRaw, necStandardTiming, unpackNecRaw, NecRawCommand.pack}
)

// necState is Receiving(bit) when non-negative.
type necState int8

const (
	necIdle       necState = -1
	necDone       necState = -2
	necRepeatDone necState = -3
	necError      necState = -4

	necBits = 32
)

// NecDecoder decodes the NEC family of pulse-distance protocols. The last
// valid payload survives Reset so that repeat frames can be resolved.
type NecDecoder[C Command] struct {
	variant *necVariant[C]
	spans   PulseSpans
	state   necState
	kind    ErrorKind
	bits    uint32
	mark    uint32

	cmd      C
	lastBits uint32
	hasLast  bool
}

func newNecDecoder[C Command](v *necVariant[C], sampleRate uint32) *NecDecoder[C] {
	return &NecDecoder[C]{
		variant: v,
		spans:   v.timing.spans(sampleRate),
		state:   necIdle,
	}
}

// NewNecDecoder creates a decoder for standard NEC.
func NewNecDecoder(sampleRate uint32) *NecDecoder[NecCommand] {
	return newNecDecoder(&necStandard, sampleRate)
}

// NewNecSamsungDecoder creates a decoder for the Samsung NEC variant.
func NewNecSamsungDecoder(sampleRate uint32) *NecDecoder[NecSamsungCommand] {
	return newNecDecoder(&necSamsung, sampleRate)
}

// NewNec16Decoder creates a decoder for NEC with a 16-bit address.
func NewNec16Decoder(sampleRate uint32) *NecDecoder[Nec16Command] {
	return newNecDecoder(&nec16, sampleRate)
}

// NewNecAppleDecoder creates a decoder for Apple remotes.
func NewNecAppleDecoder(sampleRate uint32) *NecDecoder[NecAppleCommand] {
	return newNecDecoder(&necApple, sampleRate)
}

// NewNecRawDecoder creates a decoder that accepts any 32-bit NEC payload.
func NewNecRawDecoder(sampleRate uint32) *NecDecoder[NecRawCommand] {
	return newNecDecoder(&necRaw, sampleRate)
}

// Protocol and Spans implement Decoder.
func (d *NecDecoder[C]) Protocol() Protocol { return d.variant.protocol }
func (d *NecDecoder[C]) Spans() PulseSpans  { return d.spans }

// Event feeds one edge. A falling edge ends a mark; the following rising edge
// ends the space and the mark+space sum is classified.
func (d *NecDecoder[C]) Event(rising bool, dt uint32) Status {
	if !rising {
		d.mark = dt
		return d.Status()
	}
	pulse, ok := d.spans.Classify(addSat(d.mark, dt))
	d.mark = 0

	switch {
	case d.state == necIdle:
		if !ok {
			break
		}
		switch pulse {
		case necSync:
			// A new press: repeats only resolve once this frame validates.
			d.bits = 0
			d.hasLast = false
			d.state = 0
		case necRepeat:
			if d.hasLast {
				d.cmd, _ = d.variant.unpack(d.lastBits, true)
				d.state = necRepeatDone
			}
		}

	case d.state >= 0:
		if !ok || (pulse != necZero && pulse != necOne) {
			d.fail(ErrorClassification)
			break
		}
		if pulse == necOne {
			d.bits |= 1 << uint(d.state)
		}
		if d.state < necBits-1 {
			d.state++
			break
		}
		cmd, valid := d.variant.unpack(d.bits, false)
		if !valid {
			d.fail(ErrorValidation)
			break
		}
		d.cmd = cmd
		d.lastBits = d.bits
		d.hasLast = true
		d.state = necDone
	}

	return d.Status()
}

func (d *NecDecoder[C]) fail(kind ErrorKind) {
	d.kind = kind
	d.state = necError
}

// Status reports the decoder state.
func (d *NecDecoder[C]) Status() Status {
	switch {
	case d.state >= 0:
		return StatusReceiving
	case d.state == necDone, d.state == necRepeatDone:
		return StatusDone
	case d.state == necError:
		return StatusError
	default:
		return StatusIdle
	}
}

// Command returns the decoded command once the decoder is done.
func (d *NecDecoder[C]) Command() (C, bool) {
	if d.state == necDone || d.state == necRepeatDone {
		return d.cmd, true
	}
	var zero C
	return zero, false
}

// Err describes why the last frame was rejected.
func (d *NecDecoder[C]) Err() error {
	if d.state != necError {
		return nil
	}
	return decodeErr(d.variant.protocol, d.kind)
}

// Reset returns to Idle. The last validated frame is kept for repeat codes.
func (d *NecDecoder[C]) Reset() {
	d.state = necIdle
	d.kind = ErrorNone
	d.bits = 0
	d.mark = 0
}

// NecEncoder produces NEC family pulse trains. Commands flagged as repeats
// encode as the short repeat frame.
type NecEncoder[C Command] struct {
	variant     *necVariant[C]
	headerMark  uint32
	headerSpace uint32
	repeatSpace uint32
	data        distanceTicks
}

func newNecEncoder[C Command](v *necVariant[C], sampleRate uint32) *NecEncoder[C] {
	t := v.timing
	return &NecEncoder[C]{
		variant:     v,
		headerMark:  Scale(t.headerMark, sampleRate),
		headerSpace: Scale(t.headerSpace, sampleRate),
		repeatSpace: Scale(t.repeatSpace, sampleRate),
		data:        newDistanceTicks(t.bitMark, t.zeroSpace, t.oneSpace, sampleRate),
	}
}

// NewNecEncoder returns an encoder for standard NEC at the given sample rate in Hz.
func NewNecEncoder(sampleRate uint32) *NecEncoder[NecCommand] {
	return newNecEncoder(&necStandard, sampleRate)
}

// NewNecSamsungEncoder returns an encoder for the Samsung variant.
func NewNecSamsungEncoder(sampleRate uint32) *NecEncoder[NecSamsungCommand] {
	return newNecEncoder(&necSamsung, sampleRate)
}

// NewNec16Encoder returns an encoder for the 16-bit address variant.
func NewNec16Encoder(sampleRate uint32) *NecEncoder[Nec16Command] {
	return newNecEncoder(&nec16, sampleRate)
}

// NewNecAppleEncoder returns an encoder for the Apple variant.
func NewNecAppleEncoder(sampleRate uint32) *NecEncoder[NecAppleCommand] {
	return newNecEncoder(&necApple, sampleRate)
}

// NewNecRawEncoder returns an encoder that sends 32 raw bits.
func NewNecRawEncoder(sampleRate uint32) *NecEncoder[NecRawCommand] {
	return newNecEncoder(&necRaw, sampleRate)
}

// Encode writes cmd into buf and returns the number of entries used.
func (e *NecEncoder[C]) Encode(cmd C, buf []uint32) (int, error) {
	w := newPulseWriter(buf)
	w.put(e.headerMark)
	if cmd.IsRepeat() {
		w.put(e.repeatSpace)
		w.put(e.data.mark)
		return w.result()
	}
	w.put(e.headerSpace)

	payload := e.variant.pack(cmd)
	for i := range necBits {
		w.bit(e.data, payload&(1<<i) != 0)
	}
	w.put(e.data.mark)
	return w.result()
}

// NecCommand is a standard NEC command: 8-bit address and command, each sent
// together with its complement.
type NecCommand struct {
	Addr   uint8
	Cmd    uint8
	Repeat bool
}

func (c NecCommand) pack() uint32 {
	return uint32(c.Addr) | uint32(^c.Addr)<<8 | uint32(c.Cmd)<<16 | uint32(^c.Cmd)<<24
}

func unpackNec(bits uint32, repeat bool) (NecCommand, bool) {
	addr, addrInv := uint8(bits), uint8(bits>>8)
	cmd, cmdInv := uint8(bits>>16), uint8(bits>>24)
	if addr != ^addrInv || cmd != ^cmdInv {
		return NecCommand{}, false
	}
	return NecCommand{Addr: addr, Cmd: cmd, Repeat: repeat}, true
}

func (c NecCommand) Protocol() Protocol { return ProtocolNEC }
func (c NecCommand) Address() uint32    { return uint32(c.Addr) }
func (c NecCommand) Command() uint32    { return uint32(c.Cmd) }
func (c NecCommand) IsRepeat() bool     { return c.Repeat }
func (c NecCommand) Bits() uint64       { return uint64(c.pack()) }

// NecSamsungCommand sends the address twice instead of with its complement.
type NecSamsungCommand struct {
	Addr   uint8
	Cmd    uint8
	Repeat bool
}

func (c NecSamsungCommand) pack() uint32 {
	return uint32(c.Addr) | uint32(c.Addr)<<8 | uint32(c.Cmd)<<16 | uint32(^c.Cmd)<<24
}

func unpackNecSamsung(bits uint32, repeat bool) (NecSamsungCommand, bool) {
	addr, addr2 := uint8(bits), uint8(bits>>8)
	cmd, cmdInv := uint8(bits>>16), uint8(bits>>24)
	if addr != addr2 || cmd != ^cmdInv {
		return NecSamsungCommand{}, false
	}
	return NecSamsungCommand{Addr: addr, Cmd: cmd, Repeat: repeat}, true
}

func (c NecSamsungCommand) Protocol() Protocol { return ProtocolNECSamsung }
func (c NecSamsungCommand) Address() uint32    { return uint32(c.Addr) }
func (c NecSamsungCommand) Command() uint32    { return uint32(c.Cmd) }
func (c NecSamsungCommand) IsRepeat() bool     { return c.Repeat }
func (c NecSamsungCommand) Bits() uint64       { return uint64(c.pack()) }

// Nec16Command uses the full low half of the payload as address.
type Nec16Command struct {
	Addr   uint16
	Cmd    uint8
	Repeat bool
}

func (c Nec16Command) pack() uint32 {
	return uint32(c.Addr) | uint32(c.Cmd)<<16 | uint32(^c.Cmd)<<24
}

func unpackNec16(bits uint32, repeat bool) (Nec16Command, bool) {
	cmd, cmdInv := uint8(bits>>16), uint8(bits>>24)
	if cmd != ^cmdInv {
		return Nec16Command{}, false
	}
	return Nec16Command{Addr: uint16(bits), Cmd: cmd, Repeat: repeat}, true
}

func (c Nec16Command) Protocol() Protocol { return ProtocolNEC16 }
func (c Nec16Command) Address() uint32    { return uint32(c.Addr) }
func (c Nec16Command) Command() uint32    { return uint32(c.Cmd) }
func (c Nec16Command) IsRepeat() bool     { return c.Repeat }
func (c Nec16Command) Bits() uint64       { return uint64(c.pack()) }

// Apple remote payload layout.
const (
	AppleVendorID    = 0x43F
	AppleDefaultPage = 0x0E

	applePageMask   = 0x1F
	appleVendorMask = 0x7FF
	appleVendorPos  = 5
	appleParityBit  = 1 << 16
	appleCmdPos     = 17
	appleCmdMask    = 0x7F
	appleDevicePos  = 24
)

// NecAppleCommand is an Apple remote command. The payload carries a 5-bit
// command page, the Apple vendor id, an odd parity bit, a 7-bit command and
// the id the remote is paired with.
type NecAppleCommand struct {
	Page     uint8
	Cmd      uint8
	DeviceID uint8
	Repeat   bool
}

func (c NecAppleCommand) pack() uint32 {
	b := uint32(c.Page&applePageMask) |
		AppleVendorID<<appleVendorPos |
		uint32(c.Cmd&appleCmdMask)<<appleCmdPos |
		uint32(c.DeviceID)<<appleDevicePos
	if bits.OnesCount32(b)%2 == 0 {
		b |= appleParityBit
	}
	return b
}

func unpackNecApple(b uint32, repeat bool) (NecAppleCommand, bool) {
	if (b>>appleVendorPos)&appleVendorMask != AppleVendorID {
		return NecAppleCommand{}, false
	}
	if bits.OnesCount32(b)%2 != 1 {
		return NecAppleCommand{}, false
	}
	return NecAppleCommand{
		Page:     uint8(b & applePageMask),
		Cmd:      uint8((b >> appleCmdPos) & appleCmdMask),
		DeviceID: uint8(b >> appleDevicePos),
		Repeat:   repeat,
	}, true
}

func (c NecAppleCommand) Protocol() Protocol { return ProtocolNECApple }
func (c NecAppleCommand) Address() uint32    { return uint32(c.DeviceID) }
func (c NecAppleCommand) Command() uint32    { return uint32(c.Cmd) }
func (c NecAppleCommand) IsRepeat() bool     { return c.Repeat }
func (c NecAppleCommand) Bits() uint64       { return uint64(c.pack()) }

// NecRawCommand is an unvalidated NEC payload, useful for reverse
// engineering unknown remotes.
type NecRawCommand struct {
	Raw    uint32
	Repeat bool
}

func (c NecRawCommand) pack() uint32 { return c.Raw }

func unpackNecRaw(bits uint32, repeat bool) (NecRawCommand, bool) {
	return NecRawCommand{Raw: bits, Repeat: repeat}, true
}

func (c NecRawCommand) Protocol() Protocol { return ProtocolNECRaw }
func (c NecRawCommand) Address() uint32    { return c.Raw & 0xFFFF }
func (c NecRawCommand) Command() uint32    { return c.Raw >> 16 }
func (c NecRawCommand) IsRepeat() bool     { return c.Repeat }
func (c NecRawCommand) Bits() uint64       { return uint64(c.Raw) }
