package tools

import "strings"

var operationalPresence = map[string]string{
	"brazil":    "Primary hub, 200M+ transactions/month, 3 offices.",
	"mexico":    "Secondary hub, specialized in fintech ops.",
	"argentina": "Tech center of excellence, 150+ engineers.",
}

// OperationalPresence looks up the static description of operations in a
// country. Unknown regions get a fixed fallback.
func OperationalPresence(country string) string {
	if desc, ok := operationalPresence[strings.ToLower(strings.TrimSpace(country))]; ok {
		return desc
	}
	return "Status unknown for this region."
}
