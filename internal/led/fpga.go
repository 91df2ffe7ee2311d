package led

import (
	"io"

	"github.com/smazurov/sysledd/internal/i2c"
)

// levelMask selects the indicator bits of a system LED register.
const levelMask = 0x03

// registerIO is the subset of an I2C device the FPGA backend needs.
type registerIO interface {
	ReadRegU8(reg byte) (byte, error)
	WriteReg(reg, value byte) error
}

// fpga implements Hardware against the system LED registers of the board
// FPGA. Channel n lives at register base+n; the level is held in the low
// two bits and the upper bits are preserved on write.
type fpga struct {
	dev    registerIO
	base   byte
	closer io.Closer
}

var openI2CFn = func(path string) (registerBus, error) {
	bus, err := i2c.Open(path)
	if err != nil {
		return nil, err
	}
	return i2cBus{bus}, nil
}

type registerBus interface {
	io.Closer
	Dev(addr uint16) registerIO
}

type i2cBus struct{ *i2c.Bus }

func (b i2cBus) Dev(addr uint16) registerIO { return b.Bus.Dev(addr) }

// openFPGA opens the I2C adapter at path and addresses the FPGA at addr.
func openFPGA(path string, addr uint16, base byte) (*fpga, error) {
	bus, err := openI2CFn(path)
	if err != nil {
		return nil, err
	}
	return &fpga{dev: bus.Dev(addr), base: base, closer: bus}, nil
}

func (f *fpga) reg(ch Channel) byte {
	return f.base + byte(ch)
}

// ReadLevel reads the level bits of ch's register.
func (f *fpga) ReadLevel(ch Channel) (Level, error) {
	if !ch.Known() {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: ErrUnknownChannel}
	}
	v, err := f.dev.ReadRegU8(f.reg(ch))
	if err != nil {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: err}
	}
	return Level(v & levelMask), nil
}

// WriteLevel updates the level bits of ch's register. Levels that do not
// fit in the bit field are rejected without touching the register.
func (f *fpga) WriteLevel(ch Channel, level Level) error {
	if !ch.Known() {
		return &HardwareError{Op: "write", Channel: ch, Err: ErrUnknownChannel}
	}
	if level < 0 || int(level) > levelMask {
		return &HardwareError{Op: "write", Channel: ch, Err: ErrUnsupportedLevel}
	}
	reg := f.reg(ch)
	cur, err := f.dev.ReadRegU8(reg)
	if err != nil {
		return &HardwareError{Op: "write", Channel: ch, Err: err}
	}
	next := cur&^levelMask | byte(level)
	if err := f.dev.WriteReg(reg, next); err != nil {
		return &HardwareError{Op: "write", Channel: ch, Err: err}
	}
	return nil
}

// Close releases the I2C adapter.
func (f *fpga) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
