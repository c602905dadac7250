package instructions

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	bin "github.com/gagliardetto/binary"
	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
)

// Encode returns the full wire form of one instruction: opcode ‖ operands.
// Either the whole instruction encodes or nothing is returned.
func Encode(ix Instruction) ([]byte, error) {
	if ix == nil {
		return nil, fmt.Errorf("%w: nil instruction", coder.ErrMalformedInstruction)
	}

	buf := new(bytes.Buffer)
	if err := ix.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses exactly one instruction. The input length must equal the
// opcode's layout size: shorter input is ErrLength, longer is
// ErrMalformedInstruction.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty instruction", coder.ErrLength)
	}

	op := OpCode(data[0])
	if op == OpJump {
		return nil, fmt.Errorf("%w: jump payload is not a single instruction", coder.ErrMalformedInstruction)
	}

	layout, ok := layouts[op]
	if !ok {
		return nil, fmt.Errorf("%w: unknown opcode 0x%02x", coder.ErrMalformedInstruction, data[0])
	}

	if len(data) > layout.Size() {
		return nil, fmt.Errorf("%w: %s is %d bytes, have %d", coder.ErrMalformedInstruction, op, layout.Size(), len(data))
	}

	ix := newInstruction(op)
	if err := ix.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, err
	}

	return ix, nil
}

// DecodePayload decodes either a single instruction or a jump batch.
func DecodePayload(data []byte) ([]Instruction, error) {
	if len(data) > 0 && OpCode(data[0]) == OpJump {
		return DecodeBatch(data)
	}

	ix, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return []Instruction{ix}, nil
}

// Hex renders a payload for transport: 0x prefix, lowercase, even length.
func Hex(payload []byte) string {
	return hexutil.Encode(payload)
}

func FromHex(s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: payload %q: %v", coder.ErrFormat, s, err)
	}

	return b, nil
}
