package main

// chanWriter forwards every write to a channel for the UI log panel. Writes
// never block: when the UI falls behind, lines are dropped from the panel
// but still reach the log file.
type chanWriter struct {
	ch chan<- string
}

func newChanWriter(ch chan<- string) *chanWriter {
	return &chanWriter{ch: ch}
}

func (w *chanWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}
