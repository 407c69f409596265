package logging

import (
	"log"
	"os"
)

// Init sends the standard logger to stdout with microsecond timestamps.
func Init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
