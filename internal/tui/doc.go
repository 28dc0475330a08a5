// Package tui implements the Gallery slideshow player.
//
// Built with Charmbracelet's BubbleTea, Lipgloss, and Bubbles. The model
// owns a rotator; rotator transitions arrive as messages, and a frame tick
// samples crossfade opacities while a fade is in flight.
//
// Component architecture:
//
//	model.go   root model, message routing, Init/Update/View
//	keys.go    key bindings
//	theme.go   centralized color + style definitions
//	header.go  top bar with deck context, footer with status and hints
//	slide.go   slide rendering with opacity blending
//	helpers.go truncation, clamping, caption lookup
package tui
