package pipeline

// ProgressKind identifies which source file is being read.
type ProgressKind int

// Progress kinds, in the order a build reads them.
const (
	ProgressRequirements ProgressKind = iota
	ProgressEntrypoint
	ProgressPage
)

// String returns the human-readable progress label.
func (k ProgressKind) String() string {
	switch k {
	case ProgressRequirements:
		return "Reading requirements"
	case ProgressEntrypoint:
		return "Reading entry point file"
	case ProgressPage:
		return "Reading page"
	default:
		return "Reading"
	}
}

// ProgressEvent is emitted once for every file a build reads.
type ProgressEvent struct {
	Kind ProgressKind
	Path string
}

// String formats the event as a console progress line.
func (e ProgressEvent) String() string {
	return e.Kind.String() + " " + e.Path
}

// ProgressFunc receives progress events. Calls are serialized.
type ProgressFunc func(ProgressEvent)

func noProgress(ProgressEvent) {}
