package pipeline

// Stats aggregates per-batch counters and byte totals for the summary log.
type Stats struct {
	Total      int // eligible candidates seen
	Moved      int // relocated without re-encode
	Transcoded int // successful transformations
	Skipped    int // cancelled mid-flight (source retained)
	Failed     int // probe or transform errors (source retained)

	InputBytes  int64
	OutputBytes int64
}

// Add folds another batch's stats into s; RunAll uses it to combine the
// stable and unpacked passes of one cycle.
func (s *Stats) Add(o Stats) {
	s.Total += o.Total
	s.Moved += o.Moved
	s.Transcoded += o.Transcoded
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.InputBytes += o.InputBytes
	s.OutputBytes += o.OutputBytes
}

// SpaceSaved returns the byte difference between consumed inputs and
// produced outputs. Positive means the outputs are smaller.
func (s *Stats) SpaceSaved() int64 {
	return s.InputBytes - s.OutputBytes
}
