package compiler

import "fmt"

// Opcode is a closed, numbered enumeration of every instruction the lowering
// compiler can emit and the VM knows how to dispatch. Grouped by semantic
// family.
type Opcode int

const (
	// constants / moves / boxing
	OP_CONST_INT Opcode = iota
	OP_CONST_REAL
	OP_CONST_BOOL
	OP_CONST_OBJ
	OP_CONST_NULL
	OP_MOVE_INT
	OP_MOVE_REAL
	OP_MOVE_BOOL
	OP_MOVE_OBJ
	OP_BOX_OBJ

	// conversions
	OP_INT_TO_REAL
	OP_REAL_TO_INT
	OP_BOOL_TO_INT
	OP_INT_TO_BOOL
	OP_OBJ_TO_BOOL

	// type checks
	OP_CHECK_IS
	OP_ASSERT_IS

	// integer arithmetic
	OP_ADD_INT
	OP_SUB_INT
	OP_MUL_INT
	OP_DIV_INT
	OP_MOD_INT
	OP_NEG_INT
	OP_INC_INT
	OP_DEC_INT

	// real arithmetic
	OP_ADD_REAL
	OP_SUB_REAL
	OP_MUL_REAL
	OP_DIV_REAL
	OP_NEG_REAL

	// bitwise int
	OP_AND_INT
	OP_OR_INT
	OP_XOR_INT
	OP_SHL_INT
	OP_SHR_INT
	OP_USHR_INT
	OP_INV_INT

	// per-type comparisons: EQ NEQ LT LTE GT GTE
	OP_CMP_EQ_INT
	OP_CMP_NEQ_INT
	OP_CMP_LT_INT
	OP_CMP_LTE_INT
	OP_CMP_GT_INT
	OP_CMP_GTE_INT

	OP_CMP_EQ_REAL
	OP_CMP_NEQ_REAL
	OP_CMP_LT_REAL
	OP_CMP_LTE_REAL
	OP_CMP_GT_REAL
	OP_CMP_GTE_REAL

	OP_CMP_EQ_BOOL
	OP_CMP_NEQ_BOOL

	OP_CMP_EQ_OBJ
	OP_CMP_NEQ_OBJ
	OP_CMP_LT_OBJ
	OP_CMP_LTE_OBJ
	OP_CMP_GT_OBJ
	OP_CMP_GTE_OBJ

	OP_CMP_EQ_INT_REAL
	OP_CMP_NEQ_INT_REAL
	OP_CMP_LT_INT_REAL
	OP_CMP_LTE_INT_REAL
	OP_CMP_GT_INT_REAL
	OP_CMP_GTE_INT_REAL

	OP_CMP_EQ_REAL_INT
	OP_CMP_NEQ_REAL_INT
	OP_CMP_LT_REAL_INT
	OP_CMP_LTE_REAL_INT
	OP_CMP_GT_REAL_INT
	OP_CMP_GTE_REAL_INT

	OP_CMP_REF_EQ_OBJ
	OP_CMP_REF_NEQ_OBJ

	// object arithmetic / containment
	OP_ADD_OBJ
	OP_SUB_OBJ
	OP_MUL_OBJ
	OP_DIV_OBJ
	OP_MOD_OBJ
	OP_CONTAINS_OBJ

	// boolean
	OP_NOT_BOOL
	OP_AND_BOOL
	OP_OR_BOOL

	// control
	OP_JMP
	OP_JMP_IF_TRUE
	OP_JMP_IF_FALSE
	OP_RET
	OP_RET_VOID
	OP_RET_LABEL
	OP_THROW

	// scope
	OP_PUSH_SCOPE
	OP_POP_SCOPE
	OP_PUSH_SLOT_PLAN
	OP_POP_SLOT_PLAN
	OP_DECL_LOCAL
	OP_DECL_EXT_PROPERTY
	OP_RESOLVE_SCOPE_SLOT
	OP_LOAD_OBJ_ADDR
	OP_LOAD_INT_ADDR
	OP_LOAD_REAL_ADDR
	OP_LOAD_BOOL_ADDR
	OP_STORE_OBJ_ADDR
	OP_STORE_INT_ADDR
	OP_STORE_REAL_ADDR
	OP_STORE_BOOL_ADDR

	// range helper
	OP_RANGE_INT_BOUNDS

	// general iteration protocol, grounded on object.Iterable
	OP_ITER_INIT
	OP_ITER_HAS_NEXT
	OP_ITER_NEXT

	// calls / fields / indexing
	OP_CALL_DIRECT
	OP_CALL_VIRTUAL
	OP_CALL_SLOT
	OP_CALL_FALLBACK
	OP_GET_FIELD
	OP_SET_FIELD
	OP_GET_NAME
	OP_SET_THIS_MEMBER
	OP_GET_THIS_MEMBER
	OP_GET_INDEX
	OP_SET_INDEX

	// escape hatch
	OP_EVAL_FALLBACK
	OP_EVAL_REF
	OP_EVAL_STMT

	// misc
	OP_NOP
)

// OperandKind classifies what an instruction's operand addresses. Kept
// even though instructions are tagged structs rather than packed bytes
// (see Instruction in instruction.go): the table below is still the single
// place operand *counts* are validated.
type OperandKind int

const (
	OperandSlot OperandKind = iota
	OperandAddr
	OperandConst
	OperandIP
	OperandCount
	OperandID
)

// OpCodeDefinition names an opcode and the operand kinds it expects, in
// order. Operand count is len(Operands).
type OpCodeDefinition struct {
	Name     string
	Operands []OperandKind
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_CONST_INT:  {"CONST_INT", []OperandKind{OperandConst, OperandSlot}},
	OP_CONST_REAL: {"CONST_REAL", []OperandKind{OperandConst, OperandSlot}},
	OP_CONST_BOOL: {"CONST_BOOL", []OperandKind{OperandConst, OperandSlot}},
	OP_CONST_OBJ:  {"CONST_OBJ", []OperandKind{OperandConst, OperandSlot}},
	OP_CONST_NULL: {"CONST_NULL", []OperandKind{OperandSlot}},
	OP_MOVE_INT:   {"MOVE_INT", []OperandKind{OperandSlot, OperandSlot}},
	OP_MOVE_REAL:  {"MOVE_REAL", []OperandKind{OperandSlot, OperandSlot}},
	OP_MOVE_BOOL:  {"MOVE_BOOL", []OperandKind{OperandSlot, OperandSlot}},
	OP_MOVE_OBJ:   {"MOVE_OBJ", []OperandKind{OperandSlot, OperandSlot}},
	OP_BOX_OBJ:    {"BOX_OBJ", []OperandKind{OperandSlot, OperandSlot}},

	OP_INT_TO_REAL: {"INT_TO_REAL", []OperandKind{OperandSlot, OperandSlot}},
	OP_REAL_TO_INT: {"REAL_TO_INT", []OperandKind{OperandSlot, OperandSlot}},
	OP_BOOL_TO_INT: {"BOOL_TO_INT", []OperandKind{OperandSlot, OperandSlot}},
	OP_INT_TO_BOOL: {"INT_TO_BOOL", []OperandKind{OperandSlot, OperandSlot}},
	OP_OBJ_TO_BOOL: {"OBJ_TO_BOOL", []OperandKind{OperandSlot, OperandSlot}},

	OP_CHECK_IS:  {"CHECK_IS", []OperandKind{OperandSlot, OperandConst, OperandSlot}},
	OP_ASSERT_IS: {"ASSERT_IS", []OperandKind{OperandSlot, OperandConst}},

	OP_ADD_INT: {"ADD_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_SUB_INT: {"SUB_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_MUL_INT: {"MUL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_DIV_INT: {"DIV_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_MOD_INT: {"MOD_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_NEG_INT: {"NEG_INT", []OperandKind{OperandSlot, OperandSlot}},
	OP_INC_INT: {"INC_INT", []OperandKind{OperandSlot}},
	OP_DEC_INT: {"DEC_INT", []OperandKind{OperandSlot}},

	OP_ADD_REAL: {"ADD_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_SUB_REAL: {"SUB_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_MUL_REAL: {"MUL_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_DIV_REAL: {"DIV_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_NEG_REAL: {"NEG_REAL", []OperandKind{OperandSlot, OperandSlot}},

	OP_AND_INT:  {"AND_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_OR_INT:   {"OR_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_XOR_INT:  {"XOR_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_SHL_INT:  {"SHL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_SHR_INT:  {"SHR_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_USHR_INT: {"USHR_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_INV_INT:  {"INV_INT", []OperandKind{OperandSlot, OperandSlot}},

	OP_CMP_EQ_INT:   {"CMP_EQ_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_NEQ_INT:  {"CMP_NEQ_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LT_INT:   {"CMP_LT_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LTE_INT:  {"CMP_LTE_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GT_INT:   {"CMP_GT_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GTE_INT:  {"CMP_GTE_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_EQ_REAL:  {"CMP_EQ_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_NEQ_REAL: {"CMP_NEQ_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LT_REAL:  {"CMP_LT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LTE_REAL: {"CMP_LTE_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GT_REAL:  {"CMP_GT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GTE_REAL: {"CMP_GTE_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_EQ_BOOL:  {"CMP_EQ_BOOL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_NEQ_BOOL: {"CMP_NEQ_BOOL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_EQ_OBJ:   {"CMP_EQ_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_NEQ_OBJ:  {"CMP_NEQ_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LT_OBJ:   {"CMP_LT_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LTE_OBJ:  {"CMP_LTE_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GT_OBJ:   {"CMP_GT_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GTE_OBJ:  {"CMP_GTE_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},

	OP_CMP_EQ_INT_REAL:   {"CMP_EQ_INT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_NEQ_INT_REAL:  {"CMP_NEQ_INT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LT_INT_REAL:   {"CMP_LT_INT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LTE_INT_REAL:  {"CMP_LTE_INT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GT_INT_REAL:   {"CMP_GT_INT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GTE_INT_REAL:  {"CMP_GTE_INT_REAL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_EQ_REAL_INT:   {"CMP_EQ_REAL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_NEQ_REAL_INT:  {"CMP_NEQ_REAL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LT_REAL_INT:   {"CMP_LT_REAL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_LTE_REAL_INT:  {"CMP_LTE_REAL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GT_REAL_INT:   {"CMP_GT_REAL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_GTE_REAL_INT:  {"CMP_GTE_REAL_INT", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_REF_EQ_OBJ:    {"CMP_REF_EQ_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CMP_REF_NEQ_OBJ:   {"CMP_REF_NEQ_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},

	OP_ADD_OBJ:       {"ADD_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_SUB_OBJ:       {"SUB_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_MUL_OBJ:       {"MUL_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_DIV_OBJ:       {"DIV_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_MOD_OBJ:       {"MOD_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_CONTAINS_OBJ:  {"CONTAINS_OBJ", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},

	OP_NOT_BOOL: {"NOT_BOOL", []OperandKind{OperandSlot, OperandSlot}},
	OP_AND_BOOL: {"AND_BOOL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_OR_BOOL:  {"OR_BOOL", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},

	OP_JMP:          {"JMP", []OperandKind{OperandIP}},
	OP_JMP_IF_TRUE:  {"JMP_IF_TRUE", []OperandKind{OperandSlot, OperandIP}},
	OP_JMP_IF_FALSE: {"JMP_IF_FALSE", []OperandKind{OperandSlot, OperandIP}},
	OP_RET:          {"RET", []OperandKind{OperandSlot}},
	OP_RET_VOID:     {"RET_VOID", []OperandKind{}},
	OP_RET_LABEL:    {"RET_LABEL", []OperandKind{OperandConst, OperandSlot}},
	OP_THROW:        {"THROW", []OperandKind{OperandConst, OperandSlot}},

	OP_PUSH_SCOPE:          {"PUSH_SCOPE", []OperandKind{OperandConst}},
	OP_POP_SCOPE:           {"POP_SCOPE", []OperandKind{}},
	OP_PUSH_SLOT_PLAN:      {"PUSH_SLOT_PLAN", []OperandKind{OperandConst}},
	OP_POP_SLOT_PLAN:       {"POP_SLOT_PLAN", []OperandKind{}},
	OP_DECL_LOCAL:          {"DECL_LOCAL", []OperandKind{OperandConst, OperandSlot}},
	OP_DECL_EXT_PROPERTY:   {"DECL_EXT_PROPERTY", []OperandKind{OperandConst, OperandSlot}},
	OP_RESOLVE_SCOPE_SLOT:  {"RESOLVE_SCOPE_SLOT", []OperandKind{OperandSlot, OperandAddr}},
	OP_LOAD_OBJ_ADDR:       {"LOAD_OBJ_ADDR", []OperandKind{OperandAddr, OperandSlot}},
	OP_LOAD_INT_ADDR:       {"LOAD_INT_ADDR", []OperandKind{OperandAddr, OperandSlot}},
	OP_LOAD_REAL_ADDR:      {"LOAD_REAL_ADDR", []OperandKind{OperandAddr, OperandSlot}},
	OP_LOAD_BOOL_ADDR:      {"LOAD_BOOL_ADDR", []OperandKind{OperandAddr, OperandSlot}},
	OP_STORE_OBJ_ADDR:      {"STORE_OBJ_ADDR", []OperandKind{OperandAddr, OperandSlot}},
	OP_STORE_INT_ADDR:      {"STORE_INT_ADDR", []OperandKind{OperandAddr, OperandSlot}},
	OP_STORE_REAL_ADDR:     {"STORE_REAL_ADDR", []OperandKind{OperandAddr, OperandSlot}},
	OP_STORE_BOOL_ADDR:     {"STORE_BOOL_ADDR", []OperandKind{OperandAddr, OperandSlot}},

	OP_RANGE_INT_BOUNDS: {"RANGE_INT_BOUNDS", []OperandKind{OperandSlot, OperandSlot, OperandSlot, OperandSlot}},

	OP_ITER_INIT:     {"ITER_INIT", []OperandKind{OperandSlot, OperandSlot}},
	OP_ITER_HAS_NEXT: {"ITER_HAS_NEXT", []OperandKind{OperandSlot, OperandSlot}},
	OP_ITER_NEXT:     {"ITER_NEXT", []OperandKind{OperandSlot, OperandSlot}},

	OP_CALL_DIRECT:   {"CALL_DIRECT", []OperandKind{OperandConst, OperandSlot, OperandCount, OperandSlot}},
	OP_CALL_VIRTUAL:  {"CALL_VIRTUAL", []OperandKind{OperandSlot, OperandConst, OperandSlot, OperandCount, OperandSlot}},
	OP_CALL_SLOT:     {"CALL_SLOT", []OperandKind{OperandSlot, OperandSlot, OperandCount, OperandSlot}},
	OP_CALL_FALLBACK: {"CALL_FALLBACK", []OperandKind{OperandID, OperandSlot, OperandCount, OperandSlot}},
	OP_GET_FIELD:     {"GET_FIELD", []OperandKind{OperandSlot, OperandConst, OperandSlot}},
	OP_SET_FIELD:     {"SET_FIELD", []OperandKind{OperandSlot, OperandConst, OperandSlot}},
	OP_GET_NAME:      {"GET_NAME", []OperandKind{OperandConst, OperandSlot}},
	OP_SET_THIS_MEMBER: {"SET_THIS_MEMBER", []OperandKind{OperandConst, OperandSlot}},
	OP_GET_THIS_MEMBER: {"GET_THIS_MEMBER", []OperandKind{OperandConst, OperandSlot}},
	OP_GET_INDEX:     {"GET_INDEX", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},
	OP_SET_INDEX:     {"SET_INDEX", []OperandKind{OperandSlot, OperandSlot, OperandSlot}},

	OP_EVAL_FALLBACK: {"EVAL_FALLBACK", []OperandKind{OperandID, OperandSlot}},
	OP_EVAL_REF:      {"EVAL_REF", []OperandKind{OperandConst, OperandSlot}},
	OP_EVAL_STMT:     {"EVAL_STMT", []OperandKind{OperandConst, OperandSlot}},

	OP_NOP: {"NOP", []OperandKind{}},
}

// Get returns the definition for op from the table above.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("🤖 opcode %d undefined", op)
	}
	return def, nil
}

func (op Opcode) String() string {
	if def, ok := definitions[op]; ok {
		return def.Name
	}
	return "UNKNOWN"
}
