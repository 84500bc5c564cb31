package gbasup

import "time"

// BootConfig is the immutable configuration a Context boots with. It is
// built via New's functional options, the way the teacher's
// RTSPConfig/DefaultReconnectConfig pair a plain struct with documented
// field defaults rather than a parsed-flags object.
type BootConfig struct {
	// FrameSkip is the boot frame-skip value. Nothing in this module reads
	// it: each WaitFrameStart call takes its skip count as an argument.
	FrameSkip int
	// FPSTarget is the target frame rate, 0 meaning unthrottled;
	// FrameInterval converts it to a per-frame interval. The worker loop
	// does not read it and does no pacing of its own.
	FPSTarget float64
	// AudioBufferCount is the boot audio buffer count. It is carried in
	// the config only; it is not passed to the engine.
	AudioBufferCount int
	// SkipBIOS requests the engine start past the BIOS boot animation.
	SkipBIOS bool
	// IdleOptimization is the boot idle-optimization hint. It is carried
	// in the config only; it is not passed to the engine.
	IdleOptimization bool
	// VideoSync seeds the sync channel's initial videoFrameWait policy.
	VideoSync bool
	// AudioSync seeds the sync channel's initial audioWait policy.
	AudioSync bool
	// RewindCapacity is the number of snapshots the rewind ring holds; 0
	// disables rewind capture entirely.
	RewindCapacity int
	// RewindFrameStep is how many produced frames occur between rewind
	// captures.
	RewindFrameStep int
	// GameDir, if set and ROM is nil, is scanned for the first ROM-shaped
	// file and an optional sibling patch.
	GameDir string
	// StateDir is where the save file and screenshots are written.
	StateDir string
}

// DefaultBootConfig mirrors the values a freshly-constructed supervisor
// context would have before any option is applied.
func DefaultBootConfig() BootConfig {
	return BootConfig{
		FrameSkip:       0,
		FPSTarget:       60,
		AudioBufferCount: 4,
		VideoSync:       true,
		AudioSync:       true,
		RewindFrameStep: 1,
	}
}

// Option configures a BootConfig. Options are applied in order, each
// mutating the struct New is about to boot with.
type Option func(*BootConfig)

func WithFrameSkip(skip int) Option {
	return func(c *BootConfig) { c.FrameSkip = skip }
}

func WithFPSTarget(fps float64) Option {
	return func(c *BootConfig) { c.FPSTarget = fps }
}

func WithAudioBufferCount(n int) Option {
	return func(c *BootConfig) { c.AudioBufferCount = n }
}

func WithSkipBIOS(skip bool) Option {
	return func(c *BootConfig) { c.SkipBIOS = skip }
}

func WithIdleOptimization(on bool) Option {
	return func(c *BootConfig) { c.IdleOptimization = on }
}

func WithVideoSync(wait bool) Option {
	return func(c *BootConfig) { c.VideoSync = wait }
}

func WithAudioSync(wait bool) Option {
	return func(c *BootConfig) { c.AudioSync = wait }
}

func WithRewind(capacity, frameStep int) Option {
	return func(c *BootConfig) {
		c.RewindCapacity = capacity
		if frameStep > 0 {
			c.RewindFrameStep = frameStep
		}
	}
}

func WithGameDir(path string) Option {
	return func(c *BootConfig) { c.GameDir = path }
}

func WithStateDir(path string) Option {
	return func(c *BootConfig) { c.StateDir = path }
}

// FrameInterval returns the pacing interval implied by FPSTarget, or 0 if
// unthrottled.
func (c BootConfig) FrameInterval() time.Duration {
	if c.FPSTarget <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.FPSTarget)
}
