// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

// AnyCommand is a type-erased command, used where decoders of different
// protocols report through one channel.
type AnyCommand struct {
	Protocol Protocol
	Bits     uint64
	Address  uint32
	Command  uint32
	Repeat   bool
}

// ToAny erases the concrete type of a command.
func ToAny[C Command](cmd C) AnyCommand {
	return AnyCommand{
		Protocol: cmd.Protocol(),
		Bits:     cmd.Bits(),
		Address:  cmd.Address(),
		Command:  cmd.Command(),
		Repeat:   cmd.IsRepeat(),
	}
}

// AnyDecoder is a decoder whose command type has been erased.
type AnyDecoder interface {
	Protocol() Protocol
	Event(rising bool, dt uint32) Status
	Status() Status
	AnyCommand() (AnyCommand, bool)
	Err() error
	Reset()
}

type erased[C Command] struct {
	Decoder[C]
}

func (e erased[C]) AnyCommand() (AnyCommand, bool) {
	cmd, ok := e.Command()
	if !ok {
		return AnyCommand{}, false
	}
	return ToAny(cmd), true
}

// Erase wraps a typed decoder so it can share a MultiReceiver with decoders
// of other protocols.
func Erase[C Command](d Decoder[C]) AnyDecoder {
	return erased[C]{d}
}
