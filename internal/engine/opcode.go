package engine

// Opcode is one bytecode instruction's tag byte (spec.md §4.I). Each
// group below mirrors one of the instruction categories the spec
// calls out; within a group the teacher's convention of a trailing
// comment naming the instruction's stack effect is kept.
type Opcode byte

const (
	// Constants & literals
	OpPushNone Opcode = iota
	OpPushEllipsis
	OpPushTrue
	OpPushFalse
	OpPushInt    // operand: int32 LE
	OpPushFloat  // operand: float64 LE bits
	OpPushSymbol // operand: int32 LE symbol id
	OpPushString // operand: uint16 LE length, then bytes
	OpMakeRange  // pops step, end, start (each none or integer); pushes range

	// Stack manipulation
	OpPop
	OpDup
	OpSwap

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// Comparison & logic
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNot
	OpAnd
	OpOr

	// Sequence / tree construction
	OpMakeTuple // operand: uint16 LE count; pops count values
	OpMakeList  // operand: uint16 LE count
	OpMakeSet   // operand: uint16 LE count
	OpMakeDict  // operand: uint16 LE count of pairs; pops 2*count values
	OpAppend    // pops value; peeks sequence/set and inserts
	OpDictSet   // pops value, key; peeks dictionary and inserts

	// Attribute / index access
	OpIndexLoad  // pops index, container; pushes element
	OpIndexStore // pops value, index, container; mutates in place
	OpAttrLoad   // operand: int32 LE symbol id; pops module; pushes bound value
	OpAttrStore  // operand: int32 LE symbol id; pops value, module; binds

	// Control flow
	OpJump          // operand: int32 LE signed relative offset
	OpJumpIfFalse   // operand: int32 LE signed relative offset; pops condition
	OpJumpIfTrue    // operand: int32 LE signed relative offset; pops condition
	OpIterNewFwd    // pops iterable; pushes forward iterator
	OpIterNewRev    // pops iterable; pushes reverse iterator
	OpIterAtEnd     // peeks iterator; pushes bool
	OpIterDeref     // peeks iterator; pushes current element/key
	OpIterDerefVal  // peeks iterator; pushes dictionary companion value
	OpIterAdvance   // peeks iterator; advances in place

	// Call
	OpMakeArgList      // pushes a fresh empty argument list
	OpArgPositional    // pops value; peeks argument list and appends it
	OpArgNamed         // operand: int32 LE symbol id; pops value; appends named
	OpArgIterableGroup // pops iterable; peeks argument list; expands positionally
	OpArgDictGroup     // pops dictionary; peeks argument list; expands by name
	OpMakeParamList    // pushes a fresh empty parameter list
	OpAddParameter     // operand: byte kind, int32 LE symbol id; pops default-or-none; peeks parameter list and appends
	OpMakeFunction     // operand: int32 LE bytecode address; pops parameter list; pushes function
	OpCall             // pops argument list, function; binds/invokes

	// Return
	OpReturn // pops return value; unwinds one call frame

	// Locals
	OpLoadLocal  // operand: int32 LE symbol id
	OpStoreLocal // operand: int32 LE symbol id; pops value
	OpEraseLocal // operand: int32 LE symbol id

	// Module
	OpEnterModule // pops module; pushes it onto the module stack
	OpLeaveModule // pops the module stack

	// End
	OpEnd // terminates the program
)
