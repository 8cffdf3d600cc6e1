// ABOUTME: Build identity constants for the player
// ABOUTME: Single source for version strings shown in logs and UI
package version

const (
	// Version is the player release version.
	Version = "0.1.0"

	// Product is the player name used in logs and the window title.
	Product = "avio"

	// Manufacturer identifies the project in device-facing strings.
	Manufacturer = "avio-player"
)
