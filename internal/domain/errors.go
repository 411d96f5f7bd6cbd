package domain

import "fmt"

// TransportError is a retrieval-side network failure. It is recovered
// locally by the retriever (degrade to empty results) and logged; it never
// reaches the orchestrator.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("retrieval transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InputDecodeError is a malformed inbound image payload. It aborts the
// current turn only; no bot reply is produced for that message.
type InputDecodeError struct {
	Reason string
	Err    error
}

func (e *InputDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode input: %s", e.Reason)
}

func (e *InputDecodeError) Unwrap() error { return e.Err }

// SynthesisError is a language-model failure. It aborts the current turn
// without recording a partial conversation turn; the room gets a visible
// "could not answer" reply instead of a silent drop.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
