// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import "time"

// timer is a cancellable one-shot deferred task. The controller holds at
// most one live handle per purpose and always stops it before rearming.
type timer interface {
	Stop() bool
}

// timerFactory schedules fn after delay. Swapped out in tests for a manual
// clock.
type timerFactory func(delay time.Duration, fn func()) timer

func defaultTimerFactory(delay time.Duration, fn func()) timer {
	return time.AfterFunc(delay, fn)
}
