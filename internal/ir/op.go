// Package ir implements the target-independent intermediate representation
// of an instruction set: per-instruction control flow graphs of typed
// values plus flat tables of formats, storage and encodings.
package ir

// Op is an IR operation code.
type Op int

const (
	OpInvalid Op = iota

	// Constants
	OpConst     // bit vector constant; Aux = constant.Value, already wrapped to the width
	OpConstBool // boolean constant; AuxInt = 0 or 1

	// Operands
	OpArg   // function argument; AuxInt = param index; Aux = param name
	OpField // instruction operand; Aux = *types.Field

	// Architectural state
	OpReg        // read register; Aux = *types.Reg
	OpRegFile    // read register file element; Aux = *types.Reg; Args[0] = index
	OpMem        // read memory; Aux = *types.Mem; Args[0] = address
	OpSetReg     // write register; Aux = *types.Reg; Args[0] = value; void
	OpSetRegFile // write register file element; Aux = *types.Reg; Args[0] = index, Args[1] = value; void
	OpSetMem     // write memory; Aux = *types.Mem; Args[0] = address, Args[1] = value; void

	// Calls
	OpCall // call a function or relocation; Aux = *types.Func; Args = arguments

	// Arithmetic, modulo 2^width
	OpAdd
	OpSub
	OpMul
	OpDiv  // unsigned
	OpDivS // signed
	OpMod  // unsigned
	OpModS // signed
	OpNeg

	// Bitwise
	OpAnd
	OpOr
	OpXor
	OpCom // ^x

	// Shifts; Args[1] is an unsigned count of any width
	OpShl
	OpShr // logical
	OpSar // arithmetic

	// Comparison; result Bool
	OpEq
	OpNeq
	OpLt // unsigned
	OpLeq
	OpGt
	OpGeq
	OpLtS // signed
	OpLeqS
	OpGtS
	OpGeqS

	// Boolean; both operands are evaluated
	OpNot
	OpAndBool
	OpOrBool
	OpToBool   // vector != 0
	OpFromBool // Bool as a vector of the result width

	// Bit manipulation
	OpConcat  // Args[0] in the high bits, Args[1] in the low bits
	OpSlice   // bits [AuxInt, AuxInt+width) of Args[0]
	OpExtract // field of a format value; Aux = *types.Field; AuxInt = low bit
	OpInsert  // Args[0] with field Aux replaced by Args[1]; AuxInt = low bit
	OpZext
	OpSext
	OpTrunc
	OpConvert // same bits, different type

	OpSelect // Args[0] ? Args[1] : Args[2]

	opCount // sentinel; must be last
)

// OpInfo holds metadata about an operation.
type OpInfo struct {
	Name   string
	IsPure bool // no side effects; unused results can be removed
	IsVoid bool // produces no value
	NArgs  int  // number of arguments, or -1 if variable
}

var opInfoTable = [opCount]OpInfo{
	OpInvalid: {Name: "Invalid"},

	OpConst:     {Name: "Const", IsPure: true},
	OpConstBool: {Name: "ConstBool", IsPure: true},

	OpArg:   {Name: "Arg", IsPure: true},
	OpField: {Name: "Field", IsPure: true},

	// Reads have no side effects and may be removed when unused; writes
	// stay in order.
	OpReg:        {Name: "Reg", IsPure: true},
	OpRegFile:    {Name: "RegFile", IsPure: true, NArgs: 1},
	OpMem:        {Name: "Mem", IsPure: true, NArgs: 1},
	OpSetReg:     {Name: "SetReg", IsVoid: true, NArgs: 1},
	OpSetRegFile: {Name: "SetRegFile", IsVoid: true, NArgs: 2},
	OpSetMem:     {Name: "SetMem", IsVoid: true, NArgs: 2},

	OpCall: {Name: "Call", IsPure: true, NArgs: -1},

	OpAdd:  {Name: "Add", IsPure: true, NArgs: 2},
	OpSub:  {Name: "Sub", IsPure: true, NArgs: 2},
	OpMul:  {Name: "Mul", IsPure: true, NArgs: 2},
	OpDiv:  {Name: "Div", IsPure: true, NArgs: 2},
	OpDivS: {Name: "DivS", IsPure: true, NArgs: 2},
	OpMod:  {Name: "Mod", IsPure: true, NArgs: 2},
	OpModS: {Name: "ModS", IsPure: true, NArgs: 2},
	OpNeg:  {Name: "Neg", IsPure: true, NArgs: 1},

	OpAnd: {Name: "And", IsPure: true, NArgs: 2},
	OpOr:  {Name: "Or", IsPure: true, NArgs: 2},
	OpXor: {Name: "Xor", IsPure: true, NArgs: 2},
	OpCom: {Name: "Com", IsPure: true, NArgs: 1},

	OpShl: {Name: "Shl", IsPure: true, NArgs: 2},
	OpShr: {Name: "Shr", IsPure: true, NArgs: 2},
	OpSar: {Name: "Sar", IsPure: true, NArgs: 2},

	OpEq:   {Name: "Eq", IsPure: true, NArgs: 2},
	OpNeq:  {Name: "Neq", IsPure: true, NArgs: 2},
	OpLt:   {Name: "Lt", IsPure: true, NArgs: 2},
	OpLeq:  {Name: "Leq", IsPure: true, NArgs: 2},
	OpGt:   {Name: "Gt", IsPure: true, NArgs: 2},
	OpGeq:  {Name: "Geq", IsPure: true, NArgs: 2},
	OpLtS:  {Name: "LtS", IsPure: true, NArgs: 2},
	OpLeqS: {Name: "LeqS", IsPure: true, NArgs: 2},
	OpGtS:  {Name: "GtS", IsPure: true, NArgs: 2},
	OpGeqS: {Name: "GeqS", IsPure: true, NArgs: 2},

	OpNot:      {Name: "Not", IsPure: true, NArgs: 1},
	OpAndBool:  {Name: "AndBool", IsPure: true, NArgs: 2},
	OpOrBool:   {Name: "OrBool", IsPure: true, NArgs: 2},
	OpToBool:   {Name: "ToBool", IsPure: true, NArgs: 1},
	OpFromBool: {Name: "FromBool", IsPure: true, NArgs: 1},

	OpConcat:  {Name: "Concat", IsPure: true, NArgs: 2},
	OpSlice:   {Name: "Slice", IsPure: true, NArgs: 1},
	OpExtract: {Name: "Extract", IsPure: true, NArgs: 1},
	OpInsert:  {Name: "Insert", IsPure: true, NArgs: 2},
	OpZext:    {Name: "Zext", IsPure: true, NArgs: 1},
	OpSext:    {Name: "Sext", IsPure: true, NArgs: 1},
	OpTrunc:   {Name: "Trunc", IsPure: true, NArgs: 1},
	OpConvert: {Name: "Convert", IsPure: true, NArgs: 1},

	OpSelect: {Name: "Select", IsPure: true, NArgs: 3},
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opInfoTable) {
		return opInfoTable[o].Name
	}
	return "unknown"
}

// Info returns the OpInfo for this op.
func (o Op) Info() OpInfo {
	if o >= 0 && int(o) < len(opInfoTable) {
		return opInfoTable[o]
	}
	return OpInfo{Name: "unknown"}
}

// IsPure reports whether the op has no side effects.
func (o Op) IsPure() bool { return o.Info().IsPure }

// IsVoid reports whether the op produces no value.
func (o Op) IsVoid() bool { return o.Info().IsVoid }

// IsCompare reports whether the op is a comparison.
func (o Op) IsCompare() bool { return o >= OpEq && o <= OpGeqS }
