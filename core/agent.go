package core

// Agent is driven by the game loop: one ChooseAction per tick and one
// EndEpisode, TruncateEpisode or AbortEpisode per episode. EndEpisode is
// for episodes the game ended, TruncateEpisode for episodes cut short by
// the runner's horizon.
type Agent interface {
	ChooseAction(*Observation) (Action, error)
	EndEpisode(score float64)
	TruncateEpisode(score float64)
	AbortEpisode()
	PersistState() error
}
