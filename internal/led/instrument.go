package led

import (
	"io"

	"github.com/smazurov/sysledd/internal/metrics"
)

// instrumented records every access of the wrapped backend in the
// process metrics. Errors pass through unchanged.
type instrumented struct {
	hw Hardware
}

// Instrument wraps hw so register accesses are counted and the level
// gauge follows successful reads and writes.
func Instrument(hw Hardware) Hardware {
	return &instrumented{hw: hw}
}

func (i *instrumented) ReadLevel(ch Channel) (Level, error) {
	lvl, err := i.hw.ReadLevel(ch)
	metrics.ObserveHardwareOp(ch.Name(), "read", err)
	if err == nil {
		metrics.SetIndicatorLevel(ch.Name(), int(lvl))
	}
	return lvl, err
}

func (i *instrumented) WriteLevel(ch Channel, level Level) error {
	err := i.hw.WriteLevel(ch, level)
	metrics.ObserveHardwareOp(ch.Name(), "write", err)
	if err == nil {
		metrics.SetIndicatorLevel(ch.Name(), int(level))
	}
	return err
}

// Close closes the wrapped backend when it holds resources.
func (i *instrumented) Close() error {
	if cl, ok := i.hw.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
