package display

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIConfig names the SPI port and control pins of the shift-register
// chain. Pin names are periph.io names such as "GPIO5".
type SPIConfig struct {
	Port       string // "" selects the first port
	Speed      physic.Frequency
	LatchLEDs  string
	LatchDigit string
	Enable     string // output enable, active low; optional
	Clear      string // register clear, active low; optional
}

// DefaultSPIConfig matches the clock board wiring on SPI0. The control
// pins stay clear of the SPI0 lines GPIO7 to GPIO11.
var DefaultSPIConfig = SPIConfig{
	Speed:      1 * physic.MegaHertz,
	LatchLEDs:  "GPIO5",
	LatchDigit: "GPIO6",
	Enable:     "GPIO12",
	Clear:      "GPIO13",
}

// controlPins returns the role and name of each configured control pin.
func (c SPIConfig) controlPins() [][2]string {
	pins := [][2]string{{"leds latch", c.LatchLEDs}, {"digit latch", c.LatchDigit}}
	if c.Enable != "" {
		pins = append(pins, [2]string{"enable", c.Enable})
	}
	if c.Clear != "" {
		pins = append(pins, [2]string{"clear", c.Clear})
	}
	return pins
}

// checkControlPins rejects control pins that are shared with each other or
// with a line the SPI port owns. resolve maps a pin name or alias to its
// canonical name; reserved holds the names of the port's lines.
func checkControlPins(cfg SPIConfig, resolve func(string) string, reserved []string) error {
	owned := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		owned[resolve(r)] = true
	}
	seen := make(map[string]string)
	for _, p := range cfg.controlPins() {
		role, name := p[0], resolve(p[1])
		if owned[name] {
			return fmt.Errorf("%s pin %s is used by the spi port", role, p[1])
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("%s pin %s is also the %s pin", role, p[1], other)
		}
		seen[name] = role
	}
	return nil
}

// portLines returns the names of the lines an open port drives.
func portLines(port spi.Port) []string {
	pins, ok := port.(spi.Pins)
	if !ok {
		return nil
	}
	var names []string
	for _, p := range []pin.Pin{pins.CLK(), pins.MOSI(), pins.MISO(), pins.CS()} {
		if p != nil && p != gpio.INVALID {
			names = append(names, p.Name())
		}
	}
	return names
}

// resolvePin maps an alias such as "SPI0_CS1" to the name of the pin
// behind it.
func resolvePin(name string) string {
	p := gpioreg.ByName(name)
	if p == nil {
		return name
	}
	for {
		r, ok := p.(gpio.RealPin)
		if !ok {
			return p.Name()
		}
		p = r.Real()
	}
}

// SPISink drives the display through a chain of 74HC595 shift registers.
// The segments are active low, so every byte is inverted on the wire.
type SPISink struct {
	port       spi.PortCloser
	conn       spi.Conn
	latchLEDs  gpio.PinOut
	latchDigit gpio.PinOut
	enable     gpio.PinOut
}

// NewSPISink opens the SPI port and control pins and enables the outputs.
func NewSPISink(cfg SPIConfig) (*SPISink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", cfg.Port, err)
	}
	conn, err := port.Connect(cfg.Speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi port %q: %w", cfg.Port, err)
	}

	if err := checkControlPins(cfg, resolvePin, portLines(port)); err != nil {
		port.Close()
		return nil, err
	}

	s := &SPISink{port: port, conn: conn}
	if s.latchLEDs, err = outPin(cfg.LatchLEDs, gpio.Low); err != nil {
		port.Close()
		return nil, err
	}
	if s.latchDigit, err = outPin(cfg.LatchDigit, gpio.Low); err != nil {
		port.Close()
		return nil, err
	}
	if cfg.Clear != "" {
		if _, err := outPin(cfg.Clear, gpio.High); err != nil {
			port.Close()
			return nil, err
		}
	}
	if cfg.Enable != "" {
		if s.enable, err = outPin(cfg.Enable, gpio.Low); err != nil {
			port.Close()
			return nil, err
		}
	}
	return s, nil
}

func outPin(name string, l gpio.Level) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown gpio pin %q", name)
	}
	if err := p.Out(l); err != nil {
		return nil, fmt.Errorf("set pin %s: %w", name, err)
	}
	return p, nil
}

// Write shifts out the changed registers and latches them. An LED-only
// change sends just the LED byte.
func (s *SPISink) Write(buf Buffer, mask Dirty) error {
	if mask == DirtyLEDs {
		if err := s.conn.Tx([]byte{^buf.LEDs()}, nil); err != nil {
			return fmt.Errorf("spi write leds: %w", err)
		}
		return pulse(s.latchLEDs)
	}

	w := make([]byte, len(buf))
	for i, b := range buf {
		w[i] = ^b
	}
	if err := s.conn.Tx(w, nil); err != nil {
		return fmt.Errorf("spi write digits: %w", err)
	}
	if err := pulse(s.latchDigit); err != nil {
		return err
	}
	return pulse(s.latchLEDs)
}

func pulse(p gpio.PinOut) error {
	if err := p.Out(gpio.High); err != nil {
		return fmt.Errorf("latch %s: %w", p, err)
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("latch %s: %w", p, err)
	}
	return nil
}

// Close disables the outputs and releases the SPI port.
func (s *SPISink) Close() error {
	if s.enable != nil {
		if err := s.enable.Out(gpio.High); err != nil {
			s.port.Close()
			return fmt.Errorf("disable outputs: %w", err)
		}
	}
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("close spi port: %w", err)
	}
	return nil
}
