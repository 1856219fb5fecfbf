package hydrate

// Reporter receives progress notifications. It never influences control flow.
type Reporter interface {
	Start(msg string)
	Status(msg string, details ...string)
	Error(msg string)
	Done(msg string)
	Cancel()
}

type nopReporter struct{}

func (nopReporter) Start(string)             {}
func (nopReporter) Status(string, ...string) {}
func (nopReporter) Error(string)             {}
func (nopReporter) Done(string)              {}
func (nopReporter) Cancel()                  {}
