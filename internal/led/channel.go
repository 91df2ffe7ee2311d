package led

import "fmt"

// Channel identifies one status indicator on the board.
// The ordinal value is the id used toward the hardware layer.
type Channel int

const (
	Location Channel = iota
	Diagnostic
	Fan
	PowerSupply1
	PowerSupply2

	// NumChannels is the size of the fixed indicator set.
	NumChannels = 5
)

// Level is the status code of an indicator. The numeric value is the
// encoding written to and read from the hardware, not a ranking.
type Level int

const (
	Off Level = iota
	Green
	Amber
	BlinkingGreen
)

// ChannelInfo describes one entry of the channel registry.
type ChannelInfo struct {
	ID       Channel
	Name     string
	MaxLevel Level
}

var registry = [NumChannels]ChannelInfo{
	Location:     {ID: Location, Name: "loc", MaxLevel: BlinkingGreen},
	Diagnostic:   {ID: Diagnostic, Name: "diag", MaxLevel: BlinkingGreen},
	Fan:          {ID: Fan, Name: "fan", MaxLevel: Amber},
	PowerSupply1: {ID: PowerSupply1, Name: "psu1", MaxLevel: Amber},
	PowerSupply2: {ID: PowerSupply2, Name: "psu2", MaxLevel: Amber},
}

// Channels returns every channel in ascending id order.
func Channels() []Channel {
	out := make([]Channel, NumChannels)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// Info returns the registry entry for c. It panics for channels outside
// the fixed set.
func (c Channel) Info() ChannelInfo {
	return registry[c]
}

// Name returns the display name ("loc", "diag", ...).
func (c Channel) Name() string {
	if !c.Known() {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return registry[c].Name
}

// MaxLevel returns the highest level the indicator can display.
func (c Channel) MaxLevel() Level {
	return registry[c].MaxLevel
}

// Known reports whether c is part of the fixed channel set.
func (c Channel) Known() bool {
	return c >= 0 && c < NumChannels
}

// Valid reports whether l is within [Off, MaxLevel] for c.
// The controller itself never checks this; it is offered to callers.
func (c Channel) Valid(l Level) bool {
	return c.Known() && l >= Off && l <= registry[c].MaxLevel
}

func (c Channel) String() string { return c.Name() }

func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Green:
		return "green"
	case Amber:
		return "amber"
	case BlinkingGreen:
		return "blinking-green"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}
