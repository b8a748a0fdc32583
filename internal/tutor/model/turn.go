package model

// TurnInput is one learner utterance arriving at the tutor.
type TurnInput struct {
	TurnID     string
	SessionKey string
	UserID     string
	Name       string
	ClientAddr string
	Message    string
	// History is the client-held transcript; when empty the stored history is used.
	History []HistoryTurn
}

// TurnResult is what the tutor answers for a turn.
type TurnResult struct {
	TurnID           string
	Reply            string
	Audio            []byte
	Directive        string
	Phase            Phase
	Mode             Mode
	UsedBusinessMode bool
	QuotaExceeded    bool
	SecondsUsed      int
	CostUSD          float64
}
