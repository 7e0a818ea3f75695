package pipeline

import "time"

// Option customizes a pipeline job.
type Option func(*settings)

type settings struct {
	clock func() time.Time
}

// WithClock overrides time.Now for timestamps and cooldown checks.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func applyOptions(opts []Option) settings {
	s := settings{clock: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) now() time.Time {
	return s.clock().UTC()
}
