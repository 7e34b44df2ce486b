// Package config loads the tune_select ini file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/go-ini/ini"

	"github.com/aluedtke7/tune_select/pins"
)

type LCD struct {
	LcdType   hd44780.LcdType
	Throttle  int
	Settle    time.Duration
	Stabilize time.Duration
	Spin      bool // busy-wait instead of sleeping
}

type Input struct {
	Button   string // active low, pulled up
	Motion   string // active high
	PollRate time.Duration
	Debounce time.Duration
}

type Influx struct {
	Org         string
	Bucket      string
	Measurement string
}

type Config struct {
	LCD    LCD
	Pins   pins.Names
	Input  Input
	Tunes  []string
	Influx Influx
}

// Default mirrors the board the driver was written for.
func Default() Config {
	return Config{
		LCD: LCD{
			LcdType:   hd44780.LCD_16x2,
			Settle:    time.Millisecond,
			Stabilize: 50 * time.Millisecond,
			Spin:      true,
		},
		Pins: pins.Names{
			RS:   "GPIO4",
			EN:   "GPIO17",
			Data: [4]string{"GPIO25", "GPIO22", "GPIO23", "GPIO24"},
		},
		Input: Input{
			Button:   "GPIO27",
			Motion:   "GPIO5",
			PollRate: 20 * time.Millisecond,
			Debounce: 500 * time.Millisecond,
		},
		Tunes: []string{"Tune 1", "Tune 2", "Tune 3", "Tune 4", "Tune 5", "Tune 6", "Tune 7", "Tune 8"},
		Influx: Influx{
			Org:         "privat",
			Bucket:      "tunes",
			Measurement: "tune",
		},
	}
}

// Load reads the ini file at path. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config \"%s\": %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config \"%s\": %w", path, err)
	}
	return c, nil
}

// Parse reads ini data on top of Default.
func Parse(data []byte) (Config, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return Config{}, err
	}
	c := Default()

	// [lcd]
	lcd := cfg.Section("lcd")
	switch t := lcd.Key("type").MustString("16x2"); t {
	case "16x2":
		c.LCD.LcdType = hd44780.LCD_16x2
	default:
		return Config{}, fmt.Errorf("unsupported lcd type \"%s\", only 16x2 is wired", t)
	}
	if c.LCD.Throttle, err = intKey(lcd, "throttle", 0); err != nil {
		return Config{}, err
	}
	if c.LCD.Throttle < 0 {
		return Config{}, fmt.Errorf("lcd throttle must not be negative, got %d", c.LCD.Throttle)
	}
	us, err := intKey(lcd, "settle_us", int(c.LCD.Settle/time.Microsecond))
	if err != nil {
		return Config{}, err
	}
	c.LCD.Settle = time.Duration(us) * time.Microsecond
	ms, err := intKey(lcd, "stabilize_ms", int(c.LCD.Stabilize/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	c.LCD.Stabilize = time.Duration(ms) * time.Millisecond
	if lcd.HasKey("spin") {
		if c.LCD.Spin, err = lcd.Key("spin").Bool(); err != nil {
			return Config{}, fmt.Errorf("lcd spin: %w", err)
		}
	}

	// [pins]
	p := cfg.Section("pins")
	c.Pins.RS = p.Key("rs").MustString(c.Pins.RS)
	c.Pins.EN = p.Key("en").MustString(c.Pins.EN)
	for i := range c.Pins.Data {
		k := fmt.Sprintf("d%d", i+4)
		c.Pins.Data[i] = p.Key(k).MustString(c.Pins.Data[i])
	}

	// [input]
	in := cfg.Section("input")
	c.Input.Button = in.Key("button").MustString(c.Input.Button)
	c.Input.Motion = in.Key("motion").MustString(c.Input.Motion)
	rate, err := intKey(in, "poll_rate", int(time.Second/c.Input.PollRate))
	if err != nil {
		return Config{}, err
	}
	if rate <= 0 {
		return Config{}, fmt.Errorf("input poll_rate must be positive, got %d", rate)
	}
	c.Input.PollRate = time.Second / time.Duration(rate)
	ms, err = intKey(in, "debounce_ms", int(c.Input.Debounce/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	c.Input.Debounce = time.Duration(ms) * time.Millisecond

	// [tunes]
	if cfg.HasSection("tunes") {
		var tunes []string
		for _, k := range cfg.Section("tunes").Keys() {
			tunes = append(tunes, k.String())
		}
		if len(tunes) == 0 {
			return Config{}, fmt.Errorf("tunes section is empty")
		}
		c.Tunes = tunes
	}

	// [influx]
	ix := cfg.Section("influx")
	c.Influx.Org = ix.Key("org").MustString(c.Influx.Org)
	c.Influx.Bucket = ix.Key("bucket").MustString(c.Influx.Bucket)
	c.Influx.Measurement = ix.Key("measurement").MustString(c.Influx.Measurement)

	return c, nil
}

func intKey(s *ini.Section, name string, def int) (int, error) {
	if !s.HasKey(name) {
		return def, nil
	}
	i, err := s.Key(name).Int()
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", s.Name(), name, err)
	}
	return i, nil
}
