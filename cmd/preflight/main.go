// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	logDir := strings.TrimSpace(os.Getenv("LOG_DIR"))
	targetsFile := strings.TrimSpace(os.Getenv("TARGETS_FILE"))
	probeTimeout := strings.TrimSpace(os.Getenv("PROBE_TIMEOUT"))
	feedInterval := strings.TrimSpace(os.Getenv("FEED_INTERVAL"))

	if addr == "" {
		warn("ADDR is empty; the default bind address will be used.")
	} else {
		ok("ADDR=" + addr)
	}

	if logDir == "" {
		warn("LOG_DIR is empty; logs will go to ./logs.")
	} else {
		ok("LOG_DIR=" + logDir)
	}

	if targetsFile == "" {
		warn("TARGETS_FILE is empty — the monitor starts with no targets until the API adds some.")
	} else if _, err := os.Stat(targetsFile); err != nil {
		fail("TARGETS_FILE points to " + targetsFile + " but it is not readable: " + err.Error())
	} else {
		ok("TARGETS_FILE=" + targetsFile)
	}

	for name, v := range map[string]string{"PROBE_TIMEOUT": probeTimeout, "FEED_INTERVAL": feedInterval} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			fail(name + "=" + v + " is not a valid positive duration (use forms like 10s, 500ms)")
		} else {
			ok(name + "=" + v)
		}
	}

	ok("preflight passed")
}
