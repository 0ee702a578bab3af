package dso

import "fmt"

// Opcode identifies a single-byte instruction of the version 43 script VM.
type Opcode uint8

const (
	OpFuncDecl Opcode = iota
	OpCreateObject
	OpAddObject
	OpEndObject
	OpFinishObject
	OpJmpIffNot
	OpJmpIfNot
	OpJmpIff
	OpJmpIf
	OpJmpIfNotNP
	OpJmpIfNP
	OpJmp
	OpReturn
	OpReturnVoid
	OpCmpEQ
	OpCmpGR
	OpCmpGE
	OpCmpLT
	OpCmpLE
	OpCmpNE
	OpXor
	OpMod
	OpBitAnd
	OpBitOr
	OpNot
	OpNotF
	OpOnesComplement
	OpShr
	OpShl
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpSetCurVar
	OpSetCurVarCreate
	OpSetCurVarArray
	OpSetCurVarArrayCreate
	OpLoadVarUint
	OpLoadVarFlt
	OpLoadVarStr
	OpSaveVarUint
	OpSaveVarFlt
	OpSaveVarStr
	OpSetCurObject
	OpSetCurObjectNew
	OpSetCurObjectInternal
	OpSetCurField
	OpSetCurFieldArray
	OpSetCurFieldType
	OpLoadFieldUint
	OpLoadFieldFlt
	OpLoadFieldStr
	OpSaveFieldUint
	OpSaveFieldFlt
	OpSaveFieldStr
	OpStrToUint
	OpStrToFlt
	OpStrToNone
	OpFltToUint
	OpFltToStr
	OpFltToNone
	OpUintToFlt
	OpUintToStr
	OpUintToNone
	OpLoadImmedUint
	OpLoadImmedFlt
	OpTagToStr
	OpLoadImmedStr
	OpDocBlockStr
	OpLoadImmedIdent
	OpCallFuncResolve
	OpCallFunc
	OpAdvanceStr
	OpAdvanceStrAppendChar
	OpAdvanceStrComma
	OpAdvanceStrNul
	OpRewindStr
	OpTerminateRewindStr
	OpCompareStr
	OpPush
	OpPushFrame
	OpAssert
	OpBreak
	OpIterBegin
	OpIterBeginStr
	OpIter
	OpIterEnd
	OpInvalid

	// OpcodeCount is the number of known opcodes. A short instruction whose
	// value is below it is treated as an opcode.
	OpcodeCount = int(OpInvalid) + 1
)

var opcodeNames = [OpcodeCount]string{
	"OP_FUNC_DECL",
	"OP_CREATE_OBJECT",
	"OP_ADD_OBJECT",
	"OP_END_OBJECT",
	"OP_FINISH_OBJECT",
	"OP_JMPIFFNOT",
	"OP_JMPIFNOT",
	"OP_JMPIFF",
	"OP_JMPIF",
	"OP_JMPIFNOT_NP",
	"OP_JMPIF_NP",
	"OP_JMP",
	"OP_RETURN",
	"OP_RETURN_VOID",
	"OP_CMPEQ",
	"OP_CMPGR",
	"OP_CMPGE",
	"OP_CMPLT",
	"OP_CMPLE",
	"OP_CMPNE",
	"OP_XOR",
	"OP_MOD",
	"OP_BITAND",
	"OP_BITOR",
	"OP_NOT",
	"OP_NOTF",
	"OP_ONESCOMPLEMENT",
	"OP_SHR",
	"OP_SHL",
	"OP_AND",
	"OP_OR",
	"OP_ADD",
	"OP_SUB",
	"OP_MUL",
	"OP_DIV",
	"OP_NEG",
	"OP_SETCURVAR",
	"OP_SETCURVAR_CREATE",
	"OP_SETCURVAR_ARRAY",
	"OP_SETCURVAR_ARRAY_CREATE",
	"OP_LOADVAR_UINT",
	"OP_LOADVAR_FLT",
	"OP_LOADVAR_STR",
	"OP_SAVEVAR_UINT",
	"OP_SAVEVAR_FLT",
	"OP_SAVEVAR_STR",
	"OP_SETCUROBJECT",
	"OP_SETCUROBJECT_NEW",
	"OP_SETCUROBJECT_INTERNAL",
	"OP_SETCURFIELD",
	"OP_SETCURFIELD_ARRAY",
	"OP_SETCURFIELD_TYPE",
	"OP_LOADFIELD_UINT",
	"OP_LOADFIELD_FLT",
	"OP_LOADFIELD_STR",
	"OP_SAVEFIELD_UINT",
	"OP_SAVEFIELD_FLT",
	"OP_SAVEFIELD_STR",
	"OP_STR_TO_UINT",
	"OP_STR_TO_FLT",
	"OP_STR_TO_NONE",
	"OP_FLT_TO_UINT",
	"OP_FLT_TO_STR",
	"OP_FLT_TO_NONE",
	"OP_UINT_TO_FLT",
	"OP_UINT_TO_STR",
	"OP_UINT_TO_NONE",
	"OP_LOADIMMED_UINT",
	"OP_LOADIMMED_FLT",
	"OP_TAG_TO_STR",
	"OP_LOADIMMED_STR",
	"OP_DOCBLOCK_STR",
	"OP_LOADIMMED_IDENT",
	"OP_CALLFUNC_RESOLVE",
	"OP_CALLFUNC",
	"OP_ADVANCE_STR",
	"OP_ADVANCE_STR_APPENDCHAR",
	"OP_ADVANCE_STR_COMMA",
	"OP_ADVANCE_STR_NUL",
	"OP_REWIND_STR",
	"OP_TERMINATE_REWIND_STR",
	"OP_COMPARE_STR",
	"OP_PUSH",
	"OP_PUSH_FRAME",
	"OP_ASSERT",
	"OP_BREAK",
	"OP_ITER_BEGIN",
	"OP_ITER_BEGIN_STR",
	"OP_ITER",
	"OP_ITER_END",
	"OP_INVALID",
}

// stringOperandOpcodes lists the opcodes whose next element is a byte offset
// into the global string table. Other opcodes that reference strings (for
// example OP_LOADIMMED_IDENT) are resolved through the string reference table
// or the function string table and are deliberately absent.
var stringOperandOpcodes = [OpcodeCount]bool{
	OpTagToStr:     true,
	OpLoadImmedStr: true,
	OpDocBlockStr:  true,
	OpAssert:       true,
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return int(op) < OpcodeCount
}

// HasStringOperand reports whether op is followed by a global string offset.
func (op Opcode) HasStringOperand() bool {
	return op.Valid() && stringOperandOpcodes[op]
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("OP_UNKNOWN(%d)", uint8(op))
	}
	return opcodeNames[op]
}

// StringOperandOpcodes returns the opcodes that carry a global string offset
// operand, in numeric order.
func StringOperandOpcodes() []Opcode {
	var out []Opcode
	for i, ok := range stringOperandOpcodes {
		if ok {
			out = append(out, Opcode(i))
		}
	}
	return out
}
