package fleet

// Phase names one step of the per-device pipeline
type Phase string

const (
	PhaseUpload    Phase = "upload"
	PhaseReboot    Phase = "reboot"
	PhaseInfo      Phase = "info"
	PhaseConfigure Phase = "configure"
	PhaseVerify    Phase = "verify"
)

// Observer watches a fleet run. Methods are called from worker goroutines,
// concurrently for different devices; implementations must be safe for
// concurrent use and must not block for long.
type Observer interface {
	PhaseStarted(addr string, phase Phase)
	PhaseFinished(addr string, phase Phase, ok bool, detail string)
	DeviceFinished(result DeviceResult)
}

// NopObserver ignores all events. Embed it to implement only some methods.
type NopObserver struct{}

func (NopObserver) PhaseStarted(string, Phase) {}

func (NopObserver) PhaseFinished(string, Phase, bool, string) {}

func (NopObserver) DeviceFinished(DeviceResult) {}

// Observers fans events out to several observers in order
type Observers []Observer

func (obs Observers) PhaseStarted(addr string, phase Phase) {
	for _, o := range obs {
		o.PhaseStarted(addr, phase)
	}
}

func (obs Observers) PhaseFinished(addr string, phase Phase, ok bool, detail string) {
	for _, o := range obs {
		o.PhaseFinished(addr, phase, ok, detail)
	}
}

func (obs Observers) DeviceFinished(result DeviceResult) {
	for _, o := range obs {
		o.DeviceFinished(result)
	}
}
