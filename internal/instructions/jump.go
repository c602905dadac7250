package instructions

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
)

// A jump payload is
//
//	0xAA ‖ count(1) ‖ offset(2) × count ‖ instruction × count
//
// where each offset is the absolute position of its instruction's opcode
// byte within the payload.
const (
	MaxBatchSize = math.MaxUint8

	jumpHeaderSize = 2
	offsetWidth    = 2
)

func tableSize(count int) int {
	return jumpHeaderSize + offsetWidth*count
}

// EncodeBatch encodes the instructions and joins them into one jump payload.
// It fails with ErrCompose, and produces nothing, when a recent reference in
// the batch cannot be resolved unambiguously.
func EncodeBatch(batch ...Instruction) ([]byte, error) {
	if err := checkBatchSize(len(batch)); err != nil {
		return nil, err
	}

	for i, ix := range batch {
		if ix == nil {
			return nil, fmt.Errorf("%w: instruction %d is nil", coder.ErrCompose, i)
		}
	}

	if err := checkComposition(batch); err != nil {
		return nil, err
	}

	parts := make([][]byte, len(batch))
	for i, ix := range batch {
		b, err := Encode(ix)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		parts[i] = b
	}

	return join(parts)
}

// JoinEncoded builds a jump payload from instructions that are already
// encoded. Each part must be exactly one valid instruction.
func JoinEncoded(parts ...[]byte) ([]byte, error) {
	if err := checkBatchSize(len(parts)); err != nil {
		return nil, err
	}

	batch := make([]Instruction, len(parts))
	for i, part := range parts {
		ix, err := Decode(part)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		batch[i] = ix
	}

	if err := checkComposition(batch); err != nil {
		return nil, err
	}

	return join(parts)
}

func checkBatchSize(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: empty batch", coder.ErrCompose)
	}

	if n > MaxBatchSize {
		return fmt.Errorf("%w: %d instructions, at most %d fit a jump", coder.ErrCompose, n, MaxBatchSize)
	}

	return nil
}

func join(parts [][]byte) ([]byte, error) {
	offset := tableSize(len(parts))

	total := offset
	for _, p := range parts {
		total += len(p)
	}

	buf := bytes.NewBuffer(make([]byte, 0, total))
	enc := bin.NewBinEncoder(buf)

	if err := enc.WriteUint8(uint8(OpJump)); err != nil {
		return nil, err
	}

	if err := enc.WriteUint8(uint8(len(parts))); err != nil {
		return nil, err
	}

	for i, p := range parts {
		if offset > math.MaxUint16 {
			return nil, fmt.Errorf("%w: instruction %d starts at %d, past the offset range", coder.ErrRange, i, offset)
		}

		if err := enc.WriteUint16(uint16(offset), binary.BigEndian); err != nil {
			return nil, err
		}
		offset += len(p)
	}

	for _, p := range parts {
		if err := enc.WriteBytes(p, false); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// BatchOffsets reads and validates the addressing table of a jump payload.
// Offsets must start right after the table, increase, and stay inside the
// payload.
func BatchOffsets(payload []byte) ([]int, error) {
	if len(payload) < jumpHeaderSize {
		return nil, fmt.Errorf("%w: jump header needs %d bytes, have %d", coder.ErrLength, jumpHeaderSize, len(payload))
	}

	if OpCode(payload[0]) != OpJump {
		return nil, fmt.Errorf("%w: opcode %s is not a jump", coder.ErrMalformedInstruction, OpCode(payload[0]))
	}

	count := int(payload[1])
	if count == 0 {
		return nil, fmt.Errorf("%w: jump with no instructions", coder.ErrMalformedInstruction)
	}

	size := tableSize(count)
	if len(payload) < size {
		return nil, fmt.Errorf("%w: addressing table needs %d bytes, have %d", coder.ErrLength, size, len(payload))
	}

	offsets := make([]int, count)
	prev := size
	for i := range offsets {
		at := jumpHeaderSize + i*offsetWidth
		offset := int(binary.BigEndian.Uint16(payload[at:]))

		switch {
		case i == 0 && offset != size:
			return nil, fmt.Errorf("%w: first instruction at %d, table ends at %d", coder.ErrMalformedInstruction, offset, size)
		case i > 0 && offset <= prev:
			return nil, fmt.Errorf("%w: offset %d of instruction %d does not increase", coder.ErrMalformedInstruction, offset, i)
		case offset >= len(payload):
			return nil, fmt.Errorf("%w: instruction %d at %d, payload is %d bytes", coder.ErrLength, i, offset, len(payload))
		}

		offsets[i] = offset
		prev = offset
	}

	return offsets, nil
}

// DecodeBatch decodes a jump payload by following its addressing table.
func DecodeBatch(payload []byte) ([]Instruction, error) {
	offsets, err := BatchOffsets(payload)
	if err != nil {
		return nil, err
	}

	batch := make([]Instruction, len(offsets))
	for i, start := range offsets {
		end := len(payload)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}

		if op := OpCode(payload[start]); op == OpJump {
			return nil, fmt.Errorf("%w: nested jump at instruction %d", coder.ErrMalformedInstruction, i)
		}

		ix, err := Decode(payload[start:end])
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		batch[i] = ix
	}

	return batch, nil
}

// DecodeBatchLinear decodes a jump payload by scanning instruction layouts
// from the end of the addressing table, ignoring the offsets themselves.
func DecodeBatchLinear(payload []byte) ([]Instruction, error) {
	if len(payload) < jumpHeaderSize {
		return nil, fmt.Errorf("%w: jump header needs %d bytes, have %d", coder.ErrLength, jumpHeaderSize, len(payload))
	}

	if OpCode(payload[0]) != OpJump {
		return nil, fmt.Errorf("%w: opcode %s is not a jump", coder.ErrMalformedInstruction, OpCode(payload[0]))
	}

	count := int(payload[1])
	if count == 0 {
		return nil, fmt.Errorf("%w: jump with no instructions", coder.ErrMalformedInstruction)
	}
	pos := tableSize(count)

	batch := make([]Instruction, 0, count)
	for i := 0; i < count; i++ {
		if pos >= len(payload) {
			return nil, fmt.Errorf("%w: instruction %d missing", coder.ErrLength, i)
		}

		layout, ok := layouts[OpCode(payload[pos])]
		if !ok {
			return nil, fmt.Errorf("%w: instruction %d: unknown opcode 0x%02x", coder.ErrMalformedInstruction, i, payload[pos])
		}

		end := pos + layout.Size()
		if end > len(payload) {
			return nil, fmt.Errorf("%w: instruction %d: %s needs %d bytes, have %d", coder.ErrLength, i, layout.OpCode, layout.Size(), len(payload)-pos)
		}

		ix, err := Decode(payload[pos:end])
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}

		batch = append(batch, ix)
		pos = end
	}

	if pos != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes after instruction %d", coder.ErrMalformedInstruction, len(payload)-pos, count-1)
	}

	return batch, nil
}
