// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// newProgressBar returns a progress bar for a devac operation, or nil when
// stderr isn't a terminal or the caller asked for quiet/JSON output —
// mirroring cmd/cie/index.go's progress-reporting-is-optional pattern,
// generalized from its pipeline-phase callback to a known-total file count.
func newProgressBar(globals GlobalFlags, total int, description string) *progressbar.ProgressBar {
	if globals.JSON || globals.Quiet || total == 0 {
		return nil
	}
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
}
