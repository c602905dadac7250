package instructions

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"
	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
)

// fieldWriter writes operands in the order of an opcode's layout, taking the
// width of each operand from the layout table. The first error sticks.
type fieldWriter struct {
	enc    *bin.Encoder
	layout Layout
	next   int
	err    error
}

func newFieldWriter(enc *bin.Encoder, op OpCode) *fieldWriter {
	w := &fieldWriter{enc: enc}

	layout, ok := layouts[op]
	if !ok {
		w.err = fmt.Errorf("%w: no layout for opcode %s", coder.ErrMalformedInstruction, op)
		return w
	}

	w.layout = layout
	w.err = enc.WriteUint8(uint8(op))

	return w
}

func (w *fieldWriter) field(kind FieldKind) (Field, bool) {
	if w.err != nil {
		return Field{}, false
	}

	if w.next >= len(w.layout.Fields) {
		w.err = fmt.Errorf("%s: too many operands", w.layout.OpCode)
		return Field{}, false
	}

	f := w.layout.Fields[w.next]
	w.next++

	if f.Kind != kind {
		w.err = fmt.Errorf("%s: operand %s is %s, not %s", w.layout.OpCode, f.Name, f.Kind, kind)
		return Field{}, false
	}

	return f, true
}

func (w *fieldWriter) fail(f Field, err error) {
	w.err = fmt.Errorf("%s %s: %w", w.layout.OpCode, f.Name, err)
}

func (w *fieldWriter) write(b []byte) {
	w.err = w.enc.WriteBytes(b, false)
}

func (w *fieldWriter) Uint(v uint64) {
	w.Amount(uint256.NewInt(v))
}

func (w *fieldWriter) Amount(v *uint256.Int) {
	f, ok := w.field(FieldUint)
	if !ok {
		return
	}

	b, err := coder.EncodeUint(v, f.Width)
	if err != nil {
		w.fail(f, err)
		return
	}

	w.write(b)
}

func (w *fieldWriter) Address(a common.Address) {
	if _, ok := w.field(FieldAddress); ok {
		w.write(a.Bytes())
	}
}

func (w *fieldWriter) Flags(bits ...bool) {
	f, ok := w.field(FieldFlags)
	if !ok {
		return
	}

	if len(bits) != f.Bits {
		w.fail(f, fmt.Errorf("%w: want %d flags, have %d", coder.ErrRange, f.Bits, len(bits)))
		return
	}

	b, err := coder.EncodeFlags(bits...)
	if err != nil {
		w.fail(f, err)
		return
	}

	w.err = w.enc.WriteUint8(b)
}

// identifier writes an id operand. Recent references become the all-zero
// sentinel; a literal zero would be read back as one and is refused.
func (w *fieldWriter) identifier(kind FieldKind, recent bool, value uint64) {
	f, ok := w.field(kind)
	if !ok {
		return
	}

	if recent {
		w.write(make([]byte, f.Width))
		return
	}

	if value == 0 {
		w.fail(f, fmt.Errorf("%w: zero is reserved for the most recent %s", coder.ErrRange, kindEntity(kind)))
		return
	}

	var (
		b   []byte
		err error
	)
	if kind == FieldPoolId {
		b, err = coder.PackPoolId(uint16(value>>(curveWidth*8)), value&(1<<(curveWidth*8)-1), f.Width-coder.PairWidth)
	} else {
		b, err = coder.EncodeUint64(value, f.Width)
	}
	if err != nil {
		w.fail(f, err)
		return
	}

	w.write(b)
}

func (w *fieldWriter) Pair(r PairRef) {
	w.identifier(FieldPairId, r.IsRecent(), uint64(r.Index()))
}

func (w *fieldWriter) Curve(r CurveRef) {
	w.identifier(FieldCurveId, r.IsRecent(), uint64(r.Index()))
}

func (w *fieldWriter) Pool(r PoolRef) {
	w.identifier(FieldPoolId, r.IsRecent(), r.Id().Uint64())
}

func (w *fieldWriter) Close() error {
	if w.err != nil {
		return w.err
	}

	if w.next != len(w.layout.Fields) {
		return fmt.Errorf("%s: %d of %d operands written", w.layout.OpCode, w.next, len(w.layout.Fields))
	}

	return nil
}

// fieldReader is the inverse of fieldWriter.
type fieldReader struct {
	dec    *bin.Decoder
	layout Layout
	next   int
	err    error
}

func newFieldReader(dec *bin.Decoder, op OpCode) *fieldReader {
	r := &fieldReader{dec: dec}

	layout, ok := layouts[op]
	if !ok {
		r.err = fmt.Errorf("%w: no layout for opcode %s", coder.ErrMalformedInstruction, op)
		return r
	}
	r.layout = layout

	if dec.Remaining() < layout.Size() {
		r.err = fmt.Errorf("%w: %s needs %d bytes, have %d", coder.ErrLength, op, layout.Size(), dec.Remaining())
		return r
	}

	got, err := dec.ReadUint8()
	if err != nil {
		r.err = fmt.Errorf("%w: %v", coder.ErrLength, err)
		return r
	}

	if OpCode(got) != op {
		r.err = fmt.Errorf("%w: opcode %s where %s was expected", coder.ErrMalformedInstruction, OpCode(got), op)
	}

	return r
}

func (r *fieldReader) field(kind FieldKind) (Field, []byte, bool) {
	if r.err != nil {
		return Field{}, nil, false
	}

	if r.next >= len(r.layout.Fields) {
		r.err = fmt.Errorf("%s: too many operands", r.layout.OpCode)
		return Field{}, nil, false
	}

	f := r.layout.Fields[r.next]
	r.next++

	if f.Kind != kind {
		r.err = fmt.Errorf("%s: operand %s is %s, not %s", r.layout.OpCode, f.Name, f.Kind, kind)
		return Field{}, nil, false
	}

	b, err := r.dec.ReadNBytes(f.Width)
	if err != nil {
		r.err = fmt.Errorf("%w: %s %s: %v", coder.ErrLength, r.layout.OpCode, f.Name, err)
		return Field{}, nil, false
	}

	return f, b, true
}

func (r *fieldReader) fail(f Field, err error) {
	r.err = fmt.Errorf("%s %s: %w", r.layout.OpCode, f.Name, err)
}

func (r *fieldReader) Uint() uint64 {
	f, b, ok := r.field(FieldUint)
	if !ok {
		return 0
	}

	v, err := coder.DecodeUint64(b, f.Width)
	if err != nil {
		r.fail(f, err)
	}

	return v
}

func (r *fieldReader) Amount(dst *uint256.Int) {
	f, b, ok := r.field(FieldUint)
	if !ok {
		return
	}

	v, err := coder.DecodeUint(b, f.Width)
	if err != nil {
		r.fail(f, err)
		return
	}

	dst.Set(v)
}

func (r *fieldReader) Address() common.Address {
	_, b, ok := r.field(FieldAddress)
	if !ok {
		return common.Address{}
	}

	return common.BytesToAddress(b)
}

// Flags returns the defined flag bits; positions past the layout's Bits are
// always false.
func (r *fieldReader) Flags() (out [coder.MaxFlags]bool) {
	f, b, ok := r.field(FieldFlags)
	if !ok {
		return out
	}

	bits, err := coder.DecodeFlags(b[0], f.Bits)
	if err != nil {
		r.fail(f, err)
		return out
	}

	copy(out[:], bits)
	return out
}

func (r *fieldReader) identifier(kind FieldKind) (uint64, bool) {
	f, b, ok := r.field(kind)
	if !ok {
		return 0, false
	}

	if kind == FieldPoolId {
		pair, curve, err := coder.UnpackPoolId(b, f.Width-coder.PairWidth)
		if err != nil {
			r.fail(f, err)
			return 0, false
		}
		return uint64(pair)<<(curveWidth*8) | curve, true
	}

	v, err := coder.DecodeUint64(b, f.Width)
	if err != nil {
		r.fail(f, err)
		return 0, false
	}

	return v, true
}

func (r *fieldReader) Pair() PairRef {
	v, ok := r.identifier(FieldPairId)
	if ok && v == 0 {
		return RecentPair()
	}
	return Pair(uint16(v))
}

func (r *fieldReader) Curve() CurveRef {
	v, ok := r.identifier(FieldCurveId)
	if ok && v == 0 {
		return RecentCurve()
	}
	return Curve(uint32(v))
}

func (r *fieldReader) Pool() PoolRef {
	v, ok := r.identifier(FieldPoolId)
	if ok && v == 0 {
		return RecentPool()
	}
	return Pool(PoolId{Pair: uint16(v >> (curveWidth * 8)), Curve: uint32(v)})
}

// Close reports the first read error, or a mismatch between the operands
// consumed and the layout.
func (r *fieldReader) Close() error {
	if r.err != nil {
		return r.err
	}

	if r.next != len(r.layout.Fields) {
		return fmt.Errorf("%s: %d of %d operands read", r.layout.OpCode, r.next, len(r.layout.Fields))
	}

	return nil
}

func kindEntity(kind FieldKind) EntityKind {
	switch kind {
	case FieldPairId:
		return EntityPair
	case FieldCurveId:
		return EntityCurve
	case FieldPoolId:
		return EntityPool
	default:
		return EntityNone
	}
}
