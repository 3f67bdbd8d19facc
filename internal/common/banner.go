package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner with the resolved runtime settings
func PrintBanner(config *Config) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorCyan).
		SetTextColor(banner.ColorWhite).
		SetBold(true)

	b.PrintTopLine()
	b.PrintCenteredText("MARKETLENS")
	b.PrintCenteredText("Market Analysis Pipeline")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", GetFullVersion(), 14)
	b.PrintKeyValue("Environment", config.Environment, 14)
	b.PrintKeyValue("LLM provider", string(config.LLM.DefaultProvider), 14)
	b.PrintKeyValue("Search", config.Search.Mode, 14)
	b.PrintKeyValue("Storage", config.Storage.Badger.Path, 14)
	b.PrintBottomLine()
}
