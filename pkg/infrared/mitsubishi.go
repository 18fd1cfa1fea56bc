// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "encoding/binary"

// Mitsubishi air conditioner timing, microseconds.
const (
	mitsuHeaderMark  = 3400
	mitsuHeaderSpace = 1750
	mitsuBitMark     = 450
	mitsuZeroSpace   = 420
	mitsuOneSpace    = 1300
	mitsuGapSpace    = 17100

	mitsuHeaderTolerance = 10
	mitsuDataTolerance   = 15

	// MitsubishiFrameSize is the length of one frame in bytes.
	MitsubishiFrameSize = 18
	mitsuBits           = MitsubishiFrameSize * 8
	mitsuChecksumIdx    = MitsubishiFrameSize - 1
)

const (
	mitsuSync = iota
	mitsuZero
	mitsuOne
	mitsuGap
)

// mitsuHeader is the fixed preamble of every frame.
var mitsuHeader = [5]byte{0x23, 0xCB, 0x26, 0x01, 0x00}

// mitsuState is Receiving(bit) when non-negative.
type mitsuState int16

const (
	mitsuIdle  mitsuState = -1
	mitsuDone  mitsuState = -2
	mitsuError mitsuState = -3
)

// MitsubishiDecoder decodes Mitsubishi air conditioner state frames. The
// remote sends every frame twice separated by a long gap; the second copy
// decodes with Repeat set.
type MitsubishiDecoder struct {
	spans    PulseSpans
	state    mitsuState
	kind     ErrorKind
	frame    [MitsubishiFrameSize]byte
	mark     uint32
	afterGap bool
	lastDone bool
	repeat   bool
}

// NewMitsubishiDecoder returns a decoder for the given sample rate in Hz.
func NewMitsubishiDecoder(sampleRate uint32) *MitsubishiDecoder {
	return &MitsubishiDecoder{
		spans: NewPulseSpans(sampleRate,
			Pulse{Length: mitsuHeaderMark + mitsuHeaderSpace, Tolerance: mitsuHeaderTolerance},
			Pulse{Length: mitsuBitMark + mitsuZeroSpace, Tolerance: mitsuDataTolerance},
			Pulse{Length: mitsuBitMark + mitsuOneSpace, Tolerance: mitsuDataTolerance},
			Pulse{Length: mitsuBitMark + mitsuGapSpace, Tolerance: mitsuHeaderTolerance},
		),
		state: mitsuIdle,
	}
}

// Protocol identifies the decoder.
func (d *MitsubishiDecoder) Protocol() Protocol { return ProtocolMitsubishi }

// Spans returns the pulse classifier in sample ticks.
func (d *MitsubishiDecoder) Spans() PulseSpans { return d.spans }

// Event feeds one edge and the time since the previous edge.
func (d *MitsubishiDecoder) Event(rising bool, dt uint32) Status {
	if !rising {
		d.mark = dt
		return d.Status()
	}
	pulse, ok := d.spans.Classify(addSat(d.mark, dt))
	d.mark = 0

	switch {
	case d.state == mitsuIdle:
		switch {
		case ok && pulse == mitsuGap:
			d.afterGap = true
		case ok && pulse == mitsuSync:
			d.frame = [MitsubishiFrameSize]byte{}
			// Only a gap after a validated copy marks a repeat.
			d.repeat = d.afterGap && d.lastDone
			d.afterGap = false
			d.lastDone = false
			d.state = 0
		default:
			d.afterGap = false
		}

	case d.state >= 0:
		if !ok || (pulse != mitsuZero && pulse != mitsuOne) {
			d.fail(ErrorClassification)
			break
		}
		if pulse == mitsuOne {
			d.frame[d.state/8] |= 1 << (d.state % 8)
		}
		if d.state < mitsuBits-1 {
			d.state++
			break
		}
		if mitsubishiChecksum(&d.frame) != d.frame[mitsuChecksumIdx] {
			d.fail(ErrorValidation)
			break
		}
		d.state = mitsuDone
		d.lastDone = true
	}
	return d.Status()
}

func (d *MitsubishiDecoder) fail(kind ErrorKind) {
	d.kind = kind
	d.state = mitsuError
	d.lastDone = false
}

// Status reports the decoder state.
func (d *MitsubishiDecoder) Status() Status {
	switch {
	case d.state >= 0:
		return StatusReceiving
	case d.state == mitsuDone:
		return StatusDone
	case d.state == mitsuError:
		return StatusError
	default:
		return StatusIdle
	}
}

// Command returns the decoded frame once Status is StatusDone.
func (d *MitsubishiDecoder) Command() (MitsubishiCommand, bool) {
	if d.state != mitsuDone {
		return MitsubishiCommand{}, false
	}
	return MitsubishiCommand{Bytes: d.frame, Repeat: d.repeat}, true
}

// Err describes why the last frame was rejected.
func (d *MitsubishiDecoder) Err() error {
	if d.state != mitsuError {
		return nil
	}
	return decodeErr(ProtocolMitsubishi, d.kind)
}

// Reset returns to Idle. A validated previous copy is remembered so the
// following one still decodes as a repeat.
func (d *MitsubishiDecoder) Reset() {
	d.state = mitsuIdle
	d.kind = ErrorNone
	d.mark = 0
	d.afterGap = false
	d.repeat = false
}

// MitsubishiEncoder produces the double frame a Mitsubishi remote sends.
type MitsubishiEncoder struct {
	headerMark  uint32
	headerSpace uint32
	gapSpace    uint32
	data        distanceTicks
}

// NewMitsubishiEncoder returns an encoder for the given sample rate in Hz.
func NewMitsubishiEncoder(sampleRate uint32) *MitsubishiEncoder {
	return &MitsubishiEncoder{
		headerMark:  Scale(mitsuHeaderMark, sampleRate),
		headerSpace: Scale(mitsuHeaderSpace, sampleRate),
		gapSpace:    Scale(mitsuGapSpace, sampleRate),
		data:        newDistanceTicks(mitsuBitMark, mitsuZeroSpace, mitsuOneSpace, sampleRate),
	}
}

// Encode writes the frame, the inter-frame gap and the frame again. The
// checksum byte is recomputed.
func (e *MitsubishiEncoder) Encode(cmd MitsubishiCommand, buf []uint32) (int, error) {
	frame := cmd.Bytes
	frame[mitsuChecksumIdx] = mitsubishiChecksum(&frame)

	w := newPulseWriter(buf)
	for n := range 2 {
		if n > 0 {
			w.put(e.gapSpace)
		}
		w.put(e.headerMark)
		w.put(e.headerSpace)
		for i := range mitsuBits {
			w.bit(e.data, frame[i/8]&(1<<(i%8)) != 0)
		}
		w.put(e.data.mark)
	}
	return w.result()
}

func mitsubishiChecksum(frame *[MitsubishiFrameSize]byte) byte {
	var sum byte
	for _, b := range frame[:mitsuChecksumIdx] {
		sum += b
	}
	return sum
}

// MitsubishiMode is the operating mode in byte 6.
type MitsubishiMode uint8

const (
	MitsubishiHeat MitsubishiMode = 0x08
	MitsubishiDry  MitsubishiMode = 0x10
	MitsubishiCool MitsubishiMode = 0x18
	MitsubishiAuto MitsubishiMode = 0x20
)

func (m MitsubishiMode) String() string {
	switch m {
	case MitsubishiHeat:
		return "heat"
	case MitsubishiDry:
		return "dry"
	case MitsubishiCool:
		return "cool"
	case MitsubishiAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// MitsubishiFan is the fan speed in byte 9; zero is automatic.
type MitsubishiFan uint8

const (
	MitsubishiFanAuto MitsubishiFan = 0
	MitsubishiFanMax  MitsubishiFan = 5
)

// Frame field positions.
const (
	mitsuPowerIdx = 5
	mitsuModeIdx  = 6
	mitsuTempIdx  = 7
	mitsuMode2Idx = 8
	mitsuFanIdx   = 9
	mitsuStateLo  = 5
	mitsuStateHi  = 13

	mitsuPowerOn = 0x20
	mitsuTempMin = 16
	mitsuTempMax = 31
	mitsuFanMask = 0x07
)

// MitsubishiCommand is a complete air conditioner state frame.
type MitsubishiCommand struct {
	Bytes  [MitsubishiFrameSize]byte
	Repeat bool
}

// NewMitsubishiCommand builds a frame for the given state. Temperature is
// clamped to 16..31 °C.
func NewMitsubishiCommand(power bool, mode MitsubishiMode, temperature uint8, fan MitsubishiFan) MitsubishiCommand {
	var c MitsubishiCommand
	copy(c.Bytes[:], mitsuHeader[:])
	if power {
		c.Bytes[mitsuPowerIdx] = mitsuPowerOn
	}
	c.Bytes[mitsuModeIdx] = byte(mode)
	temperature = max(mitsuTempMin, min(mitsuTempMax, temperature))
	c.Bytes[mitsuTempIdx] = temperature - mitsuTempMin
	switch mode {
	case MitsubishiCool:
		c.Bytes[mitsuMode2Idx] = 0x36
	case MitsubishiDry:
		c.Bytes[mitsuMode2Idx] = 0x32
	default:
		c.Bytes[mitsuMode2Idx] = 0x30
	}
	c.Bytes[mitsuFanIdx] = byte(min(fan, MitsubishiFanMax))
	c.Bytes[mitsuChecksumIdx] = mitsubishiChecksum(&c.Bytes)
	return c
}

// MitsubishiFromBits rebuilds a frame from the state bytes returned by Bits.
// Timer bytes past the state block are zero.
func MitsubishiFromBits(bits uint64) MitsubishiCommand {
	var c MitsubishiCommand
	copy(c.Bytes[:], mitsuHeader[:])
	binary.LittleEndian.PutUint64(c.Bytes[mitsuStateLo:mitsuStateHi], bits)
	c.Bytes[mitsuChecksumIdx] = mitsubishiChecksum(&c.Bytes)
	return c
}

func (c MitsubishiCommand) Power() bool          { return c.Bytes[mitsuPowerIdx]&mitsuPowerOn != 0 }
func (c MitsubishiCommand) Mode() MitsubishiMode { return MitsubishiMode(c.Bytes[mitsuModeIdx]) }
func (c MitsubishiCommand) Fan() MitsubishiFan   { return MitsubishiFan(c.Bytes[mitsuFanIdx] & mitsuFanMask) }

// Temperature returns the set point in °C.
func (c MitsubishiCommand) Temperature() uint8 {
	return mitsuTempMin + c.Bytes[mitsuTempIdx]&0x0F
}

// Checksum returns the checksum the frame should carry.
func (c MitsubishiCommand) Checksum() byte {
	return mitsubishiChecksum(&c.Bytes)
}

// Valid reports whether the stored checksum matches the frame.
func (c MitsubishiCommand) Valid() bool {
	return c.Checksum() == c.Bytes[mitsuChecksumIdx]
}

func (c MitsubishiCommand) Protocol() Protocol { return ProtocolMitsubishi }
func (c MitsubishiCommand) Address() uint32    { return binary.LittleEndian.Uint32(c.Bytes[0:4]) }
func (c MitsubishiCommand) Command() uint32    { return binary.LittleEndian.Uint32(c.Bytes[5:9]) }
func (c MitsubishiCommand) IsRepeat() bool     { return c.Repeat }

// Bits returns the eight state bytes following the header.
func (c MitsubishiCommand) Bits() uint64 {
	return binary.LittleEndian.Uint64(c.Bytes[mitsuStateLo:mitsuStateHi])
}
