package go_func_utils

import (
	"fmt"
	"log"
	"runtime/debug"
)

// SafeGo runs fn on a new goroutine. A panic is written to logger together
// with the goroutine name and stack, then re-raised: the tview screen hides
// stderr, so without this the crash reason is lost.
func SafeGo(logger *log.Logger, name string, fn func()) {
	go func() {
		defer logPanic(logger, name)
		fn()
	}()
}

// Recover converts a panic inside fn into an error instead of crashing.
// Used for goroutines run under an errgroup, where one failing component
// should cancel the others and let main exit cleanly.
func Recover(logger *log.Logger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	return fn()
}

func logPanic(logger *log.Logger, name string) {
	if r := recover(); r != nil {
		logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
		panic(r)
	}
}
