package main

import (
	"time"

	"github.com/amp-labs/screenflow/envutil"
)

const (
	appName = "screenstack"

	defaultTickRate  = 60
	defaultTimeScale = 1.0
	defaultFadeTime  = 500 * time.Millisecond
)

type config struct {
	TickRate  int
	TimeScale float64
	FadeTime  time.Duration
}

func loadConfig() (*config, error) {
	tickRate, err := envutil.Int("SCREENSTACK_TICK_RATE",
		envutil.Default(defaultTickRate), envutil.Positive[int]()).Value()
	if err != nil {
		return nil, err
	}

	timeScale, err := envutil.Float64("SCREENSTACK_TIME_SCALE",
		envutil.Default(defaultTimeScale)).Value()
	if err != nil {
		return nil, err
	}

	fadeTime, err := envutil.Duration("SCREENSTACK_FADE_TIME",
		envutil.Default(defaultFadeTime), envutil.Positive[time.Duration]()).Value()
	if err != nil {
		return nil, err
	}

	return &config{
		TickRate:  tickRate,
		TimeScale: timeScale,
		FadeTime:  fadeTime,
	}, nil
}

// tickInterval is the wall time between ticks of the live loop.
func (c *config) tickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
