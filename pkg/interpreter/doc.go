// Package interpreter reduces nouns built with pkg/runtime. Evaluation is pure:
// every entry point returns a noun for every input, failures are the Error noun,
// and no state survives between calls.
//
// Two executors share the opcode semantics. The tree-walker recurses on the Go
// stack and is the reference implementation; the stack executor keeps its
// pending work on explicit task and value stacks so adversarial nesting cannot
// exhaust the goroutine stack. The fixtures suite keeps them in parity.
package interpreter
