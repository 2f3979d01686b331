package tui

import "time"

type tickMsg time.Time

type resumesLoadedMsg struct {
	err error
}

type uploadDoneMsg struct {
	err error
}

type searchDoneMsg struct {
	err error
}
