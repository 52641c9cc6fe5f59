package engine

// ProgressSink receives ordered progress events from long-running engine
// invocations. It is an instrumentation hook, not a correctness contract:
// implementations must not block the computation.
type ProgressSink interface {
	Log(message string)
	Progress(percent int, status string)
}

type nopSink struct{}

func (nopSink) Log(string)           {}
func (nopSink) Progress(int, string) {}

// NopSink returns a sink that discards everything.
func NopSink() ProgressSink { return nopSink{} }

func sinkOrNop(sink ProgressSink) ProgressSink {
	if sink == nil {
		return nopSink{}
	}
	return sink
}
