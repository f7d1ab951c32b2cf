package core

type DataSet interface{}

type Analyzer interface {
	Analyze(*EpisodeContext)
	DataSet() DataSet
	Reset()
}

type RunConfig struct {
	// Episodes to run, 0 runs until the environment is exhausted
	Episodes int
	// Horizon caps the ticks of an episode, 0 for no cap
	Horizon int
	// CheckpointEvery persists the agent every n completed episodes, 0 to
	// persist only at the end of the run
	CheckpointEvery int

	ThresholdConsecutiveErrors int
}

type Experiment struct {
	Name        string
	Environment Environment
	Agent       Agent
	Analyzers   map[string]Analyzer
}

func NewExperiment(name string, env Environment, agent Agent) *Experiment {
	return &Experiment{
		Name:        name,
		Environment: env,
		Agent:       agent,
		Analyzers:   make(map[string]Analyzer),
	}
}

func (e *Experiment) AddAnalysis(name string, a Analyzer) {
	e.Analyzers[name] = a
}
