package domain

// EngineState is the lifecycle state of the local inference engine.
type EngineState string

const (
	EngineUnloaded    EngineState = "unloaded"
	EngineDownloading EngineState = "downloading"
	EngineLoading     EngineState = "loading"
	EngineLoaded      EngineState = "loaded"
	EngineFailed      EngineState = "error"
)

func (s EngineState) String() string {
	return string(s)
}

// Busy reports whether a transition is in flight.
func (s EngineState) Busy() bool {
	return s == EngineDownloading || s == EngineLoading
}
