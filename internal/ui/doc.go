// Package ui styles console output with lipgloss.
//
// [Summary] renders the end-of-run block, [Progress] a single engine progress update,
// and [ProfilesTable] / [ProvidersTable] the listing commands. Colors come from one
// [Palette] so outcomes look the same everywhere.
package ui
