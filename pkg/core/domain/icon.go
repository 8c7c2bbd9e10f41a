package domain

import "strings"

var iconHosts = []string{"instagram", "tiktok", "youtube", "linkedin", "spotify", "github"}

// IconForURL classifies a link by its URL for the page renderer.
func IconForURL(url string) string {
	lower := strings.ToLower(url)
	for _, host := range iconHosts {
		if strings.Contains(lower, host) {
			return host
		}
	}
	if strings.Contains(lower, "http") {
		return "globe"
	}
	return "link"
}
