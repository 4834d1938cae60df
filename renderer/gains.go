package renderer

import "github.com/etnz/capgains"

// GainsMarkdown renders the full report of consecutive period results.
func GainsMarkdown(currency string, results []*capgains.Result) string {
	return RenderGains(NewGains(currency, results), GainsRenderOptions{})
}

// LotsMarkdown renders the open lots of a carryover.
func LotsMarkdown(c capgains.Carryover) string {
	return RenderLots(NewLots(c))
}
