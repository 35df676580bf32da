package scan

// Logger receives per-file debug notices from workers.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

// Options tunes the scheduler. The search itself is described by search.Spec.
type Options struct {
	// QueueSize is the capacity of the shared unit queue. Zero derives it
	// from the worker count.
	QueueSize int

	// MatchBuffer and WarningBuffer bound the delivery channels; workers
	// block when the consumer falls behind.
	MatchBuffer   int
	WarningBuffer int

	// DonateThreshold is the local stack depth above which a worker hands its
	// oldest units back to the shared queue.
	DonateThreshold int

	Logger Logger
}

// DefaultOptions returns sensible defaults for scheduling.
func DefaultOptions() *Options {
	return &Options{
		MatchBuffer:     1024,
		WarningBuffer:   256,
		DonateThreshold: 32,
		Logger:          nopLogger{},
	}
}

// WithQueueSize sets the shared queue capacity.
func (o *Options) WithQueueSize(n int) *Options {
	o.QueueSize = n
	return o
}

// WithMatchBuffer sets the match channel capacity.
func (o *Options) WithMatchBuffer(n int) *Options {
	o.MatchBuffer = n
	return o
}

// WithDonateThreshold sets the local stack depth that triggers donation.
func (o *Options) WithDonateThreshold(n int) *Options {
	o.DonateThreshold = n
	return o
}

// WithLogger sets the debug logger.
func (o *Options) WithLogger(l Logger) *Options {
	if l == nil {
		l = nopLogger{}
	}
	o.Logger = l
	return o
}

func (o *Options) queueSize(workers int) int {
	if o.QueueSize > 0 {
		return o.QueueSize
	}
	size := workers * 1024
	if size < 4096 {
		size = 4096
	}
	return size
}
