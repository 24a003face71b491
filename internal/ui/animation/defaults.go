package animation

import "time"

// DefaultConfig returns the presentation defaults: 60 Hz refresh with the HUD
// visible.
func DefaultConfig() Config {
	return Config{
		Interval: time.Second / 60,
		ShowHUD:  true,
	}
}

// ConfigForRate returns DefaultConfig with the refresh interval set from a
// rate in hertz. Non-positive rates keep the default.
func ConfigForRate(hz int) Config {
	config := DefaultConfig()
	if hz > 0 {
		config.Interval = time.Second / time.Duration(hz)
	}
	return config
}
