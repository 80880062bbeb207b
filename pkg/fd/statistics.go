package fd

// Statistics is the diagnostics sidecar every Integrate call returns
// alongside its result table. It has no counterpart in the original
// Python implementation, which only ever printed ad hoc progress lines;
// this is the supplemented, structured replacement spec.md's ambient
// stack calls for.
type Statistics struct {
	InputTables  int
	InputColumns int
	InputTuples  int

	AchievedK       int
	SilhouetteScore float64

	OutputColumns int
	OutputTuples  int

	// Warnings accumulates every recoverable anomaly surfaced during the
	// run (iteration caps hit, same-table constraint early-stops). An
	// empty slice means a clean run; nothing here is ever fatal.
	Warnings []string
}
