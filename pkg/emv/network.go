package emv

import (
	"regexp"
	"strings"
)

// NetworkInfo identifies a payment network for display.
type NetworkInfo struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

type networkPattern struct {
	pattern string
	info    NetworkInfo
}

var (
	breB        = NetworkInfo{Name: "Bre-B", Color: "#10b981"}
	achColombia = NetworkInfo{Name: "ACH Colombia", Color: "#3b82f6"}
	pix         = NetworkInfo{Name: "PIX", Color: "#32bcad"}
)

// Evaluated in order; the first pattern contained in the lower-cased global id wins.
var networkPatterns = []networkPattern{
	// Bre-B (Superfinanciera / ACH Colombia identifiers)
	{"co.gov.superfinanciera", breB},
	{"co.bre-b", breB},
	{"bre-b", breB},
	{"breb", breB},
	{"co.gov", NetworkInfo{Name: "Bre-B (Gov CO)", Color: "#10b981"}},

	// Colombia
	{"redeban", NetworkInfo{Name: "Redeban", Color: "#ef4444"}},
	{"ach", achColombia},
	{"entrecuentas", NetworkInfo{Name: "EntreCuentas", Color: "#8b5cf6"}},
	{"bancolombia", NetworkInfo{Name: "Bancolombia", Color: "#fdda24"}},
	{"daviplata", NetworkInfo{Name: "Daviplata", Color: "#e60000"}},
	{"nequi", NetworkInfo{Name: "Nequi", Color: "#7c0cfa"}},
	{"movii", NetworkInfo{Name: "MOVii", Color: "#00b4e0"}},
	{"co.com", NetworkInfo{Name: "Red Colombia", Color: "#3b82f6"}},

	// International
	{"visa", NetworkInfo{Name: "Visa", Color: "#1a1f71"}},
	{"mastercard", NetworkInfo{Name: "Mastercard", Color: "#eb001b"}},
	{"pix", pix},
	{"br.gov", NetworkInfo{Name: "PIX Brasil", Color: "#32bcad"}},
}

// DetectNetwork maps a merchant account global identifier (sub-tag 00) to a known network.
// Matching is a case-insensitive substring test. It returns nil for an empty or unknown id.
func DetectNetwork(globalID string) *NetworkInfo {
	if globalID == "" {
		return nil
	}
	id := strings.ToLower(globalID)
	for _, p := range networkPatterns {
		if strings.Contains(id, p.pattern) {
			info := p.info
			return &info
		}
	}
	return nil
}

var breBIndicator = regexp.MustCompile(`(?i)redeban|ach|entrecuentas|bre-?b|superfinanciera|co\.gov|co\.bre`)

// IsBreBGlobalID reports whether a global identifier belongs to the Colombian
// interoperable (Bre-B) ecosystem.
func IsBreBGlobalID(globalID string) bool {
	return breBIndicator.MatchString(globalID)
}
