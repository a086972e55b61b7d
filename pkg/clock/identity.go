package clock

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/petermattis/goid"
)

// Identity describes the running process.
type Identity struct {
	Name string
	PID  int
	Host string
}

// NoProcess is the name reported when the executable cannot be determined.
const NoProcess = "NO_PROCESS"

var process = sync.OnceValue(func() Identity {
	id := Identity{Name: NoProcess, PID: -1}
	if exe, err := os.Executable(); err == nil {
		id.Name = strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
		id.PID = os.Getpid()
	}
	if host, err := os.Hostname(); err == nil {
		id.Host = host
	}
	return id
})

// Process returns the identity of the current process.
func Process() Identity {
	return process()
}

// Thread identifies the goroutine that produced an entry.
type Thread struct {
	ID int64
	// Locked reports whether the goroutine is bound to its OS thread
	// through LockThread.
	Locked bool
}

var lockedThreads sync.Map // goroutine id -> struct{}

// Goroutine captures the identity of the calling goroutine.
func Goroutine() Thread {
	id := goid.Get()
	_, locked := lockedThreads.Load(id)
	return Thread{ID: id, Locked: locked}
}

// GoroutineID returns the id of the calling goroutine.
func GoroutineID() int64 {
	return goid.Get()
}

// LockThread wires the calling goroutine to its OS thread and records it so
// entries report Locked. Call the returned function to undo both.
func LockThread() (unlock func()) {
	runtime.LockOSThread()
	id := goid.Get()
	lockedThreads.Store(id, struct{}{})
	return func() {
		lockedThreads.Delete(id)
		runtime.UnlockOSThread()
	}
}
