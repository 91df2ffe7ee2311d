package led

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSim_ReadWrite(t *testing.T) {
	s := newSim(discardLogger())

	for _, ch := range Channels() {
		lvl, err := s.ReadLevel(ch)
		require.NoError(t, err)
		assert.Equal(t, Off, lvl)
	}

	require.NoError(t, s.WriteLevel(Location, BlinkingGreen))
	lvl, err := s.ReadLevel(Location)
	require.NoError(t, err)
	assert.Equal(t, BlinkingGreen, lvl)

	err = s.WriteLevel(Fan, Level(4))
	assert.ErrorIs(t, err, ErrUnsupportedLevel)

	_, err = s.ReadLevel(Channel(9))
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func makeSysfsTree(t *testing.T, prefix string) string {
	t.Helper()
	root := t.TempDir()
	for _, ch := range Channels() {
		dir := filepath.Join(root, prefix+"::"+ch.Name())
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "brightness"), []byte("0\n"), 0o644))
	}
	return root
}

func TestSysfs_ReadWrite(t *testing.T) {
	root := makeSysfsTree(t, "board_led")
	s := newSysfs(root, "board_led")
	require.True(t, s.Present())
	assert.Equal(t, "board_led::psu1", s.ClassName(PowerSupply1))

	require.NoError(t, s.WriteLevel(Diagnostic, Amber))
	data, err := os.ReadFile(filepath.Join(root, "board_led::diag", "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))

	lvl, err := s.ReadLevel(Diagnostic)
	require.NoError(t, err)
	assert.Equal(t, Amber, lvl)
}

func TestSysfs_Errors(t *testing.T) {
	root := makeSysfsTree(t, "board_led")
	s := newSysfs(root, "board_led")

	require.NoError(t, os.WriteFile(filepath.Join(root, "board_led::fan", "brightness"), []byte("garbage"), 0o644))
	_, err := s.ReadLevel(Fan)
	var hwErr *HardwareError
	require.ErrorAs(t, err, &hwErr)
	assert.Equal(t, "read", hwErr.Op)
	assert.Equal(t, Fan, hwErr.Channel)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "board_led::loc")))
	assert.False(t, s.Present())
	err = s.WriteLevel(Location, Green)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// fakeRegisters is an FPGA register space.
type fakeRegisters struct {
	regs    map[byte]byte
	failErr error
}

func (f *fakeRegisters) ReadRegU8(reg byte) (byte, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	return f.regs[reg], nil
}

func (f *fakeRegisters) WriteReg(reg, value byte) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.regs[reg] = value
	return nil
}

func TestFPGA_LevelBits(t *testing.T) {
	regs := &fakeRegisters{regs: map[byte]byte{0x32: 0xF0}}
	f := &fpga{dev: regs, base: 0x30}

	require.NoError(t, f.WriteLevel(Fan, Amber))
	assert.Equal(t, byte(0xF2), regs.regs[0x32], "upper bits preserved")

	lvl, err := f.ReadLevel(Fan)
	require.NoError(t, err)
	assert.Equal(t, Amber, lvl)

	regs.regs[0x34] = 0xAB
	lvl, err = f.ReadLevel(PowerSupply2)
	require.NoError(t, err)
	assert.Equal(t, Level(0x3), lvl)

	err = f.WriteLevel(Fan, Level(4))
	assert.ErrorIs(t, err, ErrUnsupportedLevel)
	assert.Equal(t, byte(0xF2), regs.regs[0x32])
}

func TestFPGA_BusErrorIsHardwareError(t *testing.T) {
	nak := errors.New("remote I/O error")
	f := &fpga{dev: &fakeRegisters{regs: map[byte]byte{}, failErr: nak}, base: 0x30}

	_, err := f.ReadLevel(Location)
	var hwErr *HardwareError
	require.ErrorAs(t, err, &hwErr)
	assert.ErrorIs(t, err, nak)
}

type fakeBus struct {
	regs   *fakeRegisters
	closed bool
}

func (b *fakeBus) Dev(uint16) registerIO { return b.regs }
func (b *fakeBus) Close() error          { b.closed = true; return nil }

func TestOpenFPGA_ClosesBus(t *testing.T) {
	bus := &fakeBus{regs: &fakeRegisters{regs: map[byte]byte{}}}
	old := openI2CFn
	openI2CFn = func(string) (registerBus, error) { return bus, nil }
	t.Cleanup(func() { openI2CFn = old })

	f, err := openFPGA("/dev/i2c-7", 0x60, 0x30)
	require.NoError(t, err)
	require.NoError(t, f.WriteLevel(Location, Green))
	assert.Equal(t, byte(1), bus.regs.regs[0x30])

	require.NoError(t, f.Close())
	assert.True(t, bus.closed)
}

type fakeLine struct {
	value  int
	err    error
	closed bool
}

func (l *fakeLine) Value() (int, error) { return l.value, l.err }

func (l *fakeLine) SetValue(v int) error {
	if l.err != nil {
		return l.err
	}
	l.value = v
	return nil
}

func (l *fakeLine) Close() error { l.closed = true; return nil }

func newFakeLines() ([]gpioLine, []*fakeLine) {
	fakes := make([]*fakeLine, 2*NumChannels)
	lines := make([]gpioLine, len(fakes))
	for i := range fakes {
		fakes[i] = &fakeLine{}
		lines[i] = fakes[i]
	}
	return lines, fakes
}

func TestGPIO_Encoding(t *testing.T) {
	lines, fakes := newFakeLines()
	g, err := newGPIO(lines, nil)
	require.NoError(t, err)

	require.NoError(t, g.WriteLevel(Diagnostic, BlinkingGreen))
	assert.Equal(t, 1, fakes[2].value)
	assert.Equal(t, 1, fakes[3].value)

	require.NoError(t, g.WriteLevel(Fan, Amber))
	assert.Equal(t, 0, fakes[4].value)
	assert.Equal(t, 1, fakes[5].value)

	for ch, want := range map[Channel]Level{Location: Off, Diagnostic: BlinkingGreen, Fan: Amber} {
		got, err := g.ReadLevel(ch)
		require.NoError(t, err)
		assert.Equal(t, want, got, "channel %s", ch)
	}

	assert.ErrorIs(t, g.WriteLevel(Fan, Level(5)), ErrUnsupportedLevel)
}

func TestGPIO_CloseReleasesAllLines(t *testing.T) {
	lines, fakes := newFakeLines()
	chipClosed := false
	g, err := newGPIO(lines, func() error { chipClosed = true; return nil })
	require.NoError(t, err)

	require.NoError(t, g.Close())
	for i, l := range fakes {
		assert.True(t, l.closed, "line %d", i)
	}
	assert.True(t, chipClosed)
}

func TestGPIO_WrongLineCount(t *testing.T) {
	_, err := newGPIO(make([]gpioLine, 3), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "need 10 lines"))
}
