// Package disasm renders a compiled chunk as a readable assembly-style
// dump. It is never called by the compiler or VM themselves; it exists
// purely as a debugging aid, wired the way the teacher's disassembler
// wires into its own bytecode package.
package disasm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
)

// Disassembler formats one or more function prototypes as text.
type Disassembler struct {
	w       io.Writer
	visited map[*bytecode.FunctionProto]bool
	printed bool
}

// New constructs a disassembler that writes to w.
func New(w io.Writer) *Disassembler {
	return &Disassembler{w: w, visited: make(map[*bytecode.FunctionProto]bool)}
}

// Proto emits a dump for proto and, recursively, every nested function
// prototype found in its constant pool.
func (d *Disassembler) Proto(label string, proto *bytecode.FunctionProto) error {
	if proto == nil || proto.Chunk == nil {
		return fmt.Errorf("nil prototype")
	}
	if d.visited[proto] {
		return nil
	}
	d.visited[proto] = true

	d.startSection()
	name := label
	if name == "" {
		name = proto.Name
	}
	if name == "" {
		name = "<script>"
	}
	fmt.Fprintf(d.w, "func %s (arity=%d, upvalues=%d)\n", name, proto.Arity, proto.UpvalCount)
	if err := d.chunk(proto.Chunk); err != nil {
		return err
	}

	for idx, c := range proto.Chunk.Consts {
		child, ok := c.(*bytecode.FunctionProto)
		if !ok {
			continue
		}
		childName := child.Name
		if childName == "" {
			childName = fmt.Sprintf("<closure@const:%d>", idx)
		}
		if err := d.Proto(childName, child); err != nil {
			return err
		}
	}
	return nil
}

func (d *Disassembler) startSection() {
	if d.printed {
		fmt.Fprintln(d.w)
	}
	d.printed = true
}

func (d *Disassembler) chunk(c *bytecode.Chunk) error {
	code := c.Code
	for ip := 0; ip < len(code); {
		offset := ip
		op := bytecode.OpCode(code[ip])
		ip++

		line := c.GetLine(offset)
		lineStr := "-"
		if line > 0 {
			lineStr = strconv.Itoa(line)
		}

		operands, err := d.decodeOperands(op, c, &ip)
		if err != nil {
			return err
		}

		fmt.Fprintf(d.w, "%04d %4s %-14s", offset, lineStr, op.String())
		if operands != "" {
			fmt.Fprintf(d.w, " %s", operands)
		}
		fmt.Fprintln(d.w)
	}
	return nil
}

func (d *Disassembler) decodeOperands(op bytecode.OpCode, c *bytecode.Chunk, ip *int) (string, error) {
	switch op {
	case bytecode.OpConstant, bytecode.OpDefineGlobal, bytecode.OpGetGlobal, bytecode.OpSetGlobal,
		bytecode.OpClass, bytecode.OpGetProperty, bytecode.OpSetProperty, bytecode.OpMethod, bytecode.OpGetSuper:
		idx, err := readU8(c.Code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ; %s", idx, formatConstRef(c, idx)), nil

	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpGetUpValue, bytecode.OpSetUpValue, bytecode.OpCall:
		slot, err := readU8(c.Code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", slot), nil

	case bytecode.OpJump, bytecode.OpJumpBack, bytecode.OpJumpIfTrue, bytecode.OpJumpIfFalse:
		dist, err := readU16(c.Code, ip)
		if err != nil {
			return "", err
		}
		target := *ip + int(dist)
		if op == bytecode.OpJumpBack {
			target = *ip - int(dist)
		}
		return fmt.Sprintf("%d -> %d", dist, target), nil

	case bytecode.OpClosure:
		idx, err := readU8(c.Code, ip)
		if err != nil {
			return "", err
		}
		proto, _ := c.Consts[idx].(*bytecode.FunctionProto)
		operand := fmt.Sprintf("%d ; %s", idx, formatConstRef(c, idx))
		if proto == nil {
			return operand, nil
		}
		upvals := make([]string, 0, proto.UpvalCount)
		for i := 0; i < proto.UpvalCount; i++ {
			isLocal, err := readU8(c.Code, ip)
			if err != nil {
				return "", err
			}
			index, err := readU8(c.Code, ip)
			if err != nil {
				return "", err
			}
			if isLocal == 1 {
				upvals = append(upvals, fmt.Sprintf("local %d", index))
			} else {
				upvals = append(upvals, fmt.Sprintf("upvalue %d", index))
			}
		}
		if len(upvals) > 0 {
			operand += " [" + strings.Join(upvals, ", ") + "]"
		}
		return operand, nil

	case bytecode.OpInvoke:
		idx, err := readU8(c.Code, ip)
		if err != nil {
			return "", err
		}
		argc, err := readU8(c.Code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d ; %s", idx, argc, formatConstRef(c, idx)), nil

	default:
		return "", nil
	}
}

func readU8(code []byte, ip *int) (byte, error) {
	if *ip >= len(code) {
		return 0, fmt.Errorf("unexpected end of bytecode")
	}
	v := code[*ip]
	*ip++
	return v, nil
}

func readU16(code []byte, ip *int) (uint16, error) {
	if *ip+1 >= len(code) {
		return 0, fmt.Errorf("unexpected end of bytecode")
	}
	hi, lo := code[*ip], code[*ip+1]
	*ip += 2
	return uint16(hi)<<8 | uint16(lo), nil
}

func formatConstRef(c *bytecode.Chunk, idx byte) string {
	if int(idx) >= len(c.Consts) {
		return "<invalid>"
	}
	return formatConst(c.Consts[idx])
}

func formatConst(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return strconv.Quote(val)
	case *bytecode.FunctionProto:
		name := val.Name
		if name == "" {
			name = "<script>"
		}
		return "proto " + name
	default:
		return "<unknown>"
	}
}
