// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "fmt"

// NewAnyDecoder creates a type-erased decoder for protocol p.
func NewAnyDecoder(p Protocol, sampleRate uint32) (AnyDecoder, error) {
	switch p {
	case ProtocolNEC:
		return Erase[NecCommand](NewNecDecoder(sampleRate)), nil
	case ProtocolNECSamsung:
		return Erase[NecSamsungCommand](NewNecSamsungDecoder(sampleRate)), nil
	case ProtocolNEC16:
		return Erase[Nec16Command](NewNec16Decoder(sampleRate)), nil
	case ProtocolNECApple:
		return Erase[NecAppleCommand](NewNecAppleDecoder(sampleRate)), nil
	case ProtocolNECRaw:
		return Erase[NecRawCommand](NewNecRawDecoder(sampleRate)), nil
	case ProtocolRC5:
		return Erase[Rc5Command](NewRc5Decoder(sampleRate)), nil
	case ProtocolRC6:
		return Erase[Rc6Command](NewRc6Decoder(sampleRate)), nil
	case ProtocolSBP:
		return Erase[SbpCommand](NewSbpDecoder(sampleRate)), nil
	case ProtocolDenon:
		return Erase[DenonCommand](NewDenonDecoder(sampleRate)), nil
	case ProtocolMitsubishi:
		return Erase[MitsubishiCommand](NewMitsubishiDecoder(sampleRate)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, p)
}

// NewMultiReceiverFor builds a MultiReceiver running one decoder per protocol.
func NewMultiReceiverFor(sampleRate uint32, protocols ...Protocol) (*MultiReceiver, error) {
	decoders := make([]AnyDecoder, 0, len(protocols))
	for _, p := range protocols {
		d, err := NewAnyDecoder(p, sampleRate)
		if err != nil {
			return nil, err
		}
		decoders = append(decoders, d)
	}
	return NewMultiReceiver(decoders...), nil
}

// AnyEncoder encodes type-erased commands of one protocol.
type AnyEncoder interface {
	Protocol() Protocol
	Encode(cmd AnyCommand, buf []uint32) (int, error)
}

type anyEncoder[C Command] struct {
	protocol Protocol
	enc      Encoder[C]
	from     func(AnyCommand) C
}

func (e anyEncoder[C]) Protocol() Protocol { return e.protocol }

func (e anyEncoder[C]) Encode(cmd AnyCommand, buf []uint32) (int, error) {
	if cmd.Protocol != e.protocol {
		return 0, fmt.Errorf("%s encoder cannot encode %s command", e.protocol, cmd.Protocol)
	}
	return e.enc.Encode(e.from(cmd), buf)
}

func newAnyEncoder[C Command](p Protocol, enc Encoder[C], from func(AnyCommand) C) AnyEncoder {
	return anyEncoder[C]{protocol: p, enc: enc, from: from}
}

// NewAnyEncoder creates an encoder for protocol p that accepts AnyCommand.
// Fields are taken from Address and Command; toggle bits and the Mitsubishi
// state block come from Bits.
func NewAnyEncoder(p Protocol, sampleRate uint32) (AnyEncoder, error) {
	switch p {
	case ProtocolNEC:
		return newAnyEncoder[NecCommand](p, NewNecEncoder(sampleRate), func(a AnyCommand) NecCommand {
			return NecCommand{Addr: uint8(a.Address), Cmd: uint8(a.Command), Repeat: a.Repeat}
		}), nil
	case ProtocolNECSamsung:
		return newAnyEncoder[NecSamsungCommand](p, NewNecSamsungEncoder(sampleRate), func(a AnyCommand) NecSamsungCommand {
			return NecSamsungCommand{Addr: uint8(a.Address), Cmd: uint8(a.Command), Repeat: a.Repeat}
		}), nil
	case ProtocolNEC16:
		return newAnyEncoder[Nec16Command](p, NewNec16Encoder(sampleRate), func(a AnyCommand) Nec16Command {
			return Nec16Command{Addr: uint16(a.Address), Cmd: uint8(a.Command), Repeat: a.Repeat}
		}), nil
	case ProtocolNECApple:
		return newAnyEncoder[NecAppleCommand](p, NewNecAppleEncoder(sampleRate), appleFromAny), nil
	case ProtocolNECRaw:
		return newAnyEncoder[NecRawCommand](p, NewNecRawEncoder(sampleRate), func(a AnyCommand) NecRawCommand {
			return NecRawCommand{Raw: a.Address&0xFFFF | a.Command<<16, Repeat: a.Repeat}
		}), nil
	case ProtocolRC5:
		return newAnyEncoder[Rc5Command](p, NewRc5Encoder(sampleRate), func(a AnyCommand) Rc5Command {
			return Rc5Command{Addr: uint8(a.Address), Cmd: uint8(a.Command), Toggle: a.Bits&rc5ToggleBit != 0}
		}), nil
	case ProtocolRC6:
		return newAnyEncoder[Rc6Command](p, NewRc6Encoder(sampleRate), func(a AnyCommand) Rc6Command {
			return Rc6Command{Addr: uint8(a.Address), Cmd: uint8(a.Command), Toggle: a.Bits&(1<<rc6DataBits) != 0}
		}), nil
	case ProtocolSBP:
		return newAnyEncoder[SbpCommand](p, NewSbpEncoder(sampleRate), func(a AnyCommand) SbpCommand {
			return SbpCommand{Addr: uint16(a.Address), Cmd: uint8(a.Command)}
		}), nil
	case ProtocolDenon:
		return newAnyEncoder[DenonCommand](p, NewDenonEncoder(sampleRate), func(a AnyCommand) DenonCommand {
			return NewDenonCommand(uint16(a.Address), a.Command)
		}), nil
	case ProtocolMitsubishi:
		return newAnyEncoder[MitsubishiCommand](p, NewMitsubishiEncoder(sampleRate), func(a AnyCommand) MitsubishiCommand {
			c := MitsubishiFromBits(a.Bits)
			c.Repeat = a.Repeat
			return c
		}), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, p)
}

// appleFromAny keeps the command page when the raw payload is a valid Apple
// frame and falls back to the default page otherwise.
func appleFromAny(a AnyCommand) NecAppleCommand {
	if c, ok := unpackNecApple(uint32(a.Bits), a.Repeat); ok {
		return c
	}
	return NecAppleCommand{
		Page:     AppleDefaultPage,
		Cmd:      uint8(a.Command),
		DeviceID: uint8(a.Address),
		Repeat:   a.Repeat,
	}
}

// EncodeAny encodes a type-erased command at the given sample rate.
func EncodeAny(cmd AnyCommand, sampleRate uint32, buf []uint32) (int, error) {
	enc, err := NewAnyEncoder(cmd.Protocol, sampleRate)
	if err != nil {
		return 0, err
	}
	return enc.Encode(cmd, buf)
}
