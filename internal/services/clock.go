package services

import "time"

// nowFunc is the clock for the params validity-window check.
var nowFunc = time.Now
