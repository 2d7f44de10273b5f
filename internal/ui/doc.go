// Package ui implements an interactive playlist downloader using bubbletea's Elm architecture.
//
// The TUI walks through four views:
//  1. [URLView] : Enter a playlist URL
//  2. [SelectView] : Pick videos by range (s/e at the cursor) or by toggling (space)
//  3. [ProgressView] : Watch the backend job through the poller
//  4. [ResultView] : Open or save the finished archive, or retry after a failure
//
// Polling is driven by tea.Tick: each tick runs exactly one [tasks.Poller.Tick] and the next
// tick is only scheduled once that poll has returned. Quitting stops the poller.
package ui
