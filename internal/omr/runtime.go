package omr

import (
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrNativeUnavailable is reported when the binary was built without the
// native backend or the native library could not be initialised.
var ErrNativeUnavailable = errors.New("native backend unavailable")

// State is the position of the native backend latch.
type State int32

const (
	NativeReady State = iota
	NativeDisabled
)

func (s State) String() string {
	if s == NativeReady {
		return "native_ready"
	}
	return "native_disabled"
}

// Runtime is the process-wide, one-way native backend latch. It starts in
// NativeReady only if the probe succeeds; the first native failure moves
// it to NativeDisabled for good. Safe for concurrent use.
type Runtime struct {
	state  atomic.Int32
	mu     sync.Mutex
	reason error
}

// RuntimeStatus is a snapshot of a Runtime.
type RuntimeStatus struct {
	State         string `json:"state"`
	Reason        string `json:"reason,omitempty"`
	NativeVersion string `json:"native_version,omitempty"`
}

// NewRuntime runs probe once and starts in NativeReady when it returns nil.
// A nil probe means no native backend.
func NewRuntime(probe func() error) *Runtime {
	r := &Runtime{}
	err := ErrNativeUnavailable
	if probe != nil {
		err = probe()
	}
	if err != nil {
		r.state.Store(int32(NativeDisabled))
		r.reason = err
	}
	return r
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// DefaultRuntime returns the shared runtime of this process. The native
// probe runs on first use; SCORE_OMR_NATIVE=off skips it.
func DefaultRuntime() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = NewRuntime(func() error {
			if strings.EqualFold(os.Getenv("SCORE_OMR_NATIVE"), "off") {
				return errors.New("disabled by SCORE_OMR_NATIVE=off")
			}
			return probeNative()
		})
		debugf("runtime starts in %s", defaultRuntime.State())
	})
	return defaultRuntime
}

// State returns the current latch position.
func (r *Runtime) State() State {
	return State(r.state.Load())
}

// NativeEnabled reports whether native runs may still be attempted.
func (r *Runtime) NativeEnabled() bool {
	return r.State() == NativeReady
}

// Disable trips the latch. Only the first call records its cause and logs.
func (r *Runtime) Disable(cause error) {
	if !r.state.CompareAndSwap(int32(NativeReady), int32(NativeDisabled)) {
		return
	}
	r.mu.Lock()
	r.reason = cause
	r.mu.Unlock()
	log.Printf("native backend disabled for this process: %v", cause)
}

// Status returns a snapshot for reporting.
func (r *Runtime) Status() RuntimeStatus {
	st := RuntimeStatus{State: r.State().String(), NativeVersion: NativeVersion()}
	r.mu.Lock()
	if r.reason != nil {
		st.Reason = r.reason.Error()
	}
	r.mu.Unlock()
	return st
}

var debugEnabled = strings.EqualFold(os.Getenv("SCORE_OMR_LOG_LEVEL"), "debug")

func debugf(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf(format, args...)
	}
}
