package notifier

import "time"

// Discord formatting constants
const (
	DiscordUsername   = "JS Collector"
	DefaultEmbedColor = 0x2B2D31 // Discord dark theme color
	AddEmbedColor     = 0x5CB85C
	ClearEmbedColor   = 0xF0AD4E
	FilterEmbedColor  = 0x5BC0DE
)

const (
	// Discord rejects embed descriptions longer than 4096 characters.
	maxDescriptionLength = 4000
	maxErrorBodyLength   = 512
	defaultHTTPTimeout   = 20 * time.Second
)
