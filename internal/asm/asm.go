// Package asm implements the external tokenizer/parser collaborator named
// in the core specification: it turns assembly source text into a dense,
// ordered []isa.Instruction and never touches engine state. Mirrors the
// two-pass shape (strip/label-resolve, then parse) used by the teaching
// VMs this corpus draws from.
package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yomnahisham/tomasulo-simulator/internal/isa"
)

// Diagnostic is a single parse failure at a source location. Parse
// failures are reported as a list of these; none of them mutate engine
// state (the caller only gets a []Diagnostic or a valid []isa.Instruction,
// never both).
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

var (
	memOperand = regexp.MustCompile(`^(-?\d+)\(R(\d)\)$`)
	regOperand = regexp.MustCompile(`^R(\d)$`)
)

type rawLine struct {
	sourceLine int
	label      string // non-empty if this line declared a label (possibly alone on the line)
	op         string
	args       []string
}

// Parse tokenizes and parses assembly source, resolving labels to program
// indices. On success it returns the dense instruction slice with Id and
// Pc populated; on failure it returns nil and the full set of diagnostics
// found (parsing does not stop at the first error so a caller can report
// them all at once).
func Parse(source string) ([]isa.Instruction, []Diagnostic) {
	lines := strings.Split(source, "\n")

	var raws []rawLine
	labels := map[string]int{}
	var diags []Diagnostic

	for i, text := range lines {
		lineNo := i + 1
		if idx := strings.IndexByte(text, '#'); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		label := ""
		if colon := strings.IndexByte(text, ':'); colon >= 0 && !strings.ContainsAny(text[:colon], " \t") {
			label = text[:colon]
			text = strings.TrimSpace(text[colon+1:])
			if text == "" {
				// label on its own line: attaches to the next emitted instruction
				raws = append(raws, rawLine{sourceLine: lineNo, label: label})
				continue
			}
		}

		fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
		if len(fields) == 0 {
			continue
		}

		raw := rawLine{sourceLine: lineNo, label: label, op: strings.ToUpper(fields[0]), args: fields[1:]}
		raws = append(raws, raw)
	}

	// First pass: assign program indices, collecting every label (including
	// ones that share a line with the first real instruction after them).
	instrIndex := 0
	var pending []rawLine
	for _, r := range raws {
		if r.op == "" {
			// bare label line: remember it for the next real instruction
			pending = append(pending, r)
			continue
		}
		if r.label != "" {
			if _, dup := labels[r.label]; dup {
				diags = append(diags, Diagnostic{Line: r.sourceLine, Message: fmt.Sprintf("duplicate label %q", r.label)})
			} else {
				labels[r.label] = instrIndex
			}
		}
		for _, p := range pending {
			if _, dup := labels[p.label]; dup {
				diags = append(diags, Diagnostic{Line: p.sourceLine, Message: fmt.Sprintf("duplicate label %q", p.label)})
			} else {
				labels[p.label] = instrIndex
			}
		}
		pending = nil
		instrIndex++
	}
	for _, p := range pending {
		diags = append(diags, Diagnostic{Line: p.sourceLine, Message: fmt.Sprintf("label %q has no following instruction", p.label)})
	}

	if len(diags) > 0 {
		return nil, diags
	}

	instructions := make([]isa.Instruction, 0, instrIndex)
	pc := 0
	for _, r := range raws {
		if r.op == "" {
			continue
		}
		in, err := parseInstruction(r, labels)
		if err != nil {
			diags = append(diags, Diagnostic{Line: r.sourceLine, Message: err.Error()})
			pc++
			continue
		}
		in.Id = pc
		in.Pc = pc
		// BEQ's immediate is PC-relative, so a label operand can only be
		// converted once every label's program index is known.
		if in.Op == isa.BEQ && in.Label != "" {
			target, ok := labels[in.Label]
			if !ok {
				diags = append(diags, Diagnostic{Line: r.sourceLine, Message: fmt.Sprintf("undefined label %q", in.Label)})
				pc++
				continue
			}
			in.Imm = int16(target - (pc + 1))
		}
		instructions = append(instructions, in)
		pc++
	}

	if len(diags) > 0 {
		return nil, diags
	}
	return instructions, nil
}

func parseInstruction(r rawLine, labels map[string]int) (isa.Instruction, error) {
	var op isa.Opcode
	switch r.op {
	case "ADD":
		op = isa.ADD
	case "SUB":
		op = isa.SUB
	case "NAND":
		op = isa.NAND
	case "MUL":
		op = isa.MUL
	case "LOAD":
		op = isa.LOAD
	case "STORE":
		op = isa.STORE
	case "BEQ":
		op = isa.BEQ
	case "CALL":
		op = isa.CALL
	case "RET":
		op = isa.RET
	default:
		return isa.Instruction{}, fmt.Errorf("unknown opcode %q", r.op)
	}

	switch op {
	case isa.ADD, isa.SUB, isa.NAND, isa.MUL:
		if len(r.args) != 3 {
			return isa.Instruction{}, fmt.Errorf("%s wants 3 register operands, got %d", r.op, len(r.args))
		}
		ra, err := parseReg(r.args[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rb, err := parseReg(r.args[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		rc, err := parseReg(r.args[2])
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: op, RA: ra, RB: rb, RC: rc}, nil

	case isa.LOAD, isa.STORE:
		if len(r.args) != 2 {
			return isa.Instruction{}, fmt.Errorf("%s wants a register and a memory operand, got %d args", r.op, len(r.args))
		}
		ra, err := parseReg(r.args[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rb, imm, err := parseMem(r.args[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: op, RA: ra, RB: rb, HasImm: true, Imm: imm}, nil

	case isa.BEQ:
		if len(r.args) != 3 {
			return isa.Instruction{}, fmt.Errorf("BEQ wants 2 registers and an offset or label, got %d args", len(r.args))
		}
		ra, err := parseReg(r.args[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rb, err := parseReg(r.args[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		if _, ok := labels[r.args[2]]; ok {
			// Resolved to a PC-relative Imm once every label's program
			// index is known — see Parse's post-pass.
			return isa.Instruction{Op: op, RA: ra, RB: rb, HasImm: true, Label: r.args[2]}, nil
		}
		imm, err := parseImm(r.args[2])
		if err != nil {
			return isa.Instruction{}, fmt.Errorf("expected offset or label, got %q", r.args[2])
		}
		return isa.Instruction{Op: op, RA: ra, RB: rb, HasImm: true, Imm: imm}, nil

	case isa.CALL:
		if len(r.args) != 1 {
			return isa.Instruction{}, fmt.Errorf("CALL wants a single label or immediate target, got %d args", len(r.args))
		}
		if target, ok := labels[r.args[0]]; ok {
			return isa.Instruction{Op: op, Label: r.args[0], Target: target}, nil
		}
		imm, err := parseImm(r.args[0])
		if err != nil {
			return isa.Instruction{}, fmt.Errorf("unresolved label or bad immediate %q", r.args[0])
		}
		return isa.Instruction{Op: op, Target: int(imm)}, nil

	case isa.RET:
		if len(r.args) != 0 {
			return isa.Instruction{}, fmt.Errorf("RET takes no operands, got %d args", len(r.args))
		}
		return isa.Instruction{Op: op}, nil
	}

	return isa.Instruction{}, fmt.Errorf("unhandled opcode %q", r.op)
}

func parseReg(tok string) (uint8, error) {
	m := regOperand.FindStringSubmatch(strings.ToUpper(tok))
	if m == nil {
		return 0, fmt.Errorf("expected register operand (R0..R7), got %q", tok)
	}
	n, _ := strconv.Atoi(m[1])
	if n >= isa.NumRegisters {
		return 0, fmt.Errorf("register out of range: %q", tok)
	}
	return uint8(n), nil
}

func parseMem(tok string) (reg uint8, imm int16, err error) {
	m := memOperand.FindStringSubmatch(strings.ToUpper(tok))
	if m == nil {
		return 0, 0, fmt.Errorf("expected memory operand offset(Rn), got %q", tok)
	}
	off, convErr := strconv.ParseInt(m[1], 10, 32)
	if convErr != nil {
		return 0, 0, fmt.Errorf("bad offset in %q: %w", tok, convErr)
	}
	n, _ := strconv.Atoi(m[2])
	if n >= isa.NumRegisters {
		return 0, 0, fmt.Errorf("register out of range: %q", tok)
	}
	return uint8(n), int16(off), nil
}

func parseImm(tok string) (int16, error) {
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("expected decimal integer, got %q", tok)
	}
	return int16(n), nil
}

// Render turns a parsed instruction sequence back into assembly text.
// Parse(Render(Parse(src))) reproduces the same opcodes, registers,
// immediates and targets; source label names are not kept: every CALL
// target gets a synthesized label L<index> so the emitted source is
// self-contained, and BEQ is emitted with its numeric offset.
func Render(instructions []isa.Instruction) string {
	labelAt := map[int]string{}
	for _, in := range instructions {
		if in.Op == isa.CALL {
			if _, ok := labelAt[in.Target]; !ok {
				labelAt[in.Target] = fmt.Sprintf("L%d", in.Target)
			}
		}
	}

	var b strings.Builder
	for i, in := range instructions {
		if label, ok := labelAt[i]; ok {
			fmt.Fprintf(&b, "%s:\n", label)
		}
		if in.Op == isa.CALL {
			label := labelAt[in.Target]
			fmt.Fprintf(&b, "CALL %s\n", label)
			continue
		}
		fmt.Fprintln(&b, in.String())
	}
	return b.String()
}
