package game

// Event types emitted by the engine.
const (
	EventTypeGameCreated     = "GameCreated"
	EventTypePhaseChanged    = "PhaseChanged"
	EventTypePlayerJoined    = "PlayerJoined"
	EventTypePlayerCommitted = "PlayerCommitted"
	EventTypePlayerRevealed  = "PlayerRevealed"
	EventTypeResultComputed  = "ResultComputed"
	EventTypePayoutMade      = "PayoutMade"
)
