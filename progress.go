package main

import (
	"math"

	"github.com/pterm/pterm"

	"github.com/imbrut/imbrut/proto"
)

// strategy.Reporter backed by a PTerm progress bar
type progressReporter struct {
	bar *pterm.ProgressbarPrinter
}

func (r *progressReporter) Start(total uint64) {
	if total > math.MaxInt {
		total = math.MaxInt
	}

	bar, err := pterm.DefaultProgressbar.WithTotal(int(total)).WithTitle("Progress").WithShowCount(true).WithShowElapsedTime(true).WithShowPercentage(true).Start()
	if err != nil {
		pterm.Warning.Printf("failed to start progress bar: %s\n", err)
		return
	}

	r.bar = bar
}

func (r *progressReporter) Advance(c proto.Credential) {
	if r.bar == nil {
		return
	}

	r.bar.UpdateTitle("current: " + c.Credential.String())
	r.bar.Increment()
}

func (r *progressReporter) Finish(match *proto.Credential) {
	if r.bar == nil {
		return
	}

	r.bar.Stop()
	r.bar = nil

	if match != nil {
		pterm.Debug.Printf("match: %s\n", match.Credential)
	}
}
