package instructions

import "fmt"

// OpCode is the one-byte tag that starts every instruction. Values are part
// of the wire contract and must never be renumbered.
type OpCode uint8

const (
	OpUnknown              OpCode = 0x00
	OpAddLiquidity         OpCode = 0x01
	OpRemoveLiquidity      OpCode = 0x03
	OpSwapExactTokens      OpCode = 0x05
	OpCreatePool           OpCode = 0x0B
	OpCreatePair           OpCode = 0x0C
	OpCreateCurve          OpCode = 0x0D
	OpCreateControlledPool OpCode = 0x0E
	OpJump                 OpCode = 0xAA
)

var opNames = map[OpCode]string{
	OpAddLiquidity:         "addLiquidity",
	OpRemoveLiquidity:      "removeLiquidity",
	OpSwapExactTokens:      "swapExactTokens",
	OpCreatePool:           "createPool",
	OpCreatePair:           "createPair",
	OpCreateCurve:          "createCurve",
	OpCreateControlledPool: "createControlledPool",
	OpJump:                 "jump",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(op))
}

// ParseOpCode maps an instruction name back to its opcode.
func ParseOpCode(name string) (OpCode, bool) {
	for op, n := range opNames {
		if n == name {
			return op, true
		}
	}
	return OpUnknown, false
}
