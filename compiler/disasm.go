package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders fn's instruction stream as human-readable text: one
// line per Instruction, naming the opcode and its operands, since a tagged
// Instruction has no encoding worth dumping as hex.
func Disassemble(fn *CompiledFunction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s (locals=%d addrs=%d)\n", fn.Name, fn.LocalCount, fn.AddrCount)
	for i, instr := range fn.Instructions {
		def, err := Get(instr.Op)
		name := instr.Op.String()
		if err == nil {
			name = def.Name
		}
		fmt.Fprintf(&b, "%4d  %-20s", i, name)
		for _, operand := range instr.Operands {
			fmt.Fprintf(&b, " %d", operand)
		}
		b.WriteString("\n")
	}
	if len(fn.Constants) > 0 {
		b.WriteString("constants:\n")
		for i, c := range fn.Constants {
			fmt.Fprintf(&b, "%4d  %#v\n", i, c)
		}
	}
	return b.String()
}
