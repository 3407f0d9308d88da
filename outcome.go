package coach

// TurnOutcome indicates how a streaming turn ended.
type TurnOutcome string

const (
	OutcomeEndTurn   TurnOutcome = "end_turn"  // stream closed without a terminal event
	OutcomeCompleted TurnOutcome = "completed" // terminal artifact received
	OutcomeAborted   TurnOutcome = "aborted"   // cancelled by the client
	OutcomeError     TurnOutcome = "error"     // server or transport failure
	OutcomeLength    TurnOutcome = "length"    // content limit reached
	OutcomeRejected  TurnOutcome = "rejected"  // preconditions failed, nothing sent
)
