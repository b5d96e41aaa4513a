package ddns

import "strings"

// ZoneID returns the Netlify DNS zone identifier for domain,
// which is the domain with every "." replaced by "_".
func ZoneID(domain string) string {
	return strings.ReplaceAll(domain, ".", "_")
}

// DomainFromHostname returns the registrable domain for hostname by keeping its last two labels.
//
//	"example.com"     → "example.com"
//	"www.example.com" → "example.com"
//
// Multi-label public suffixes are not recognized: "foo.co.uk" yields "co.uk".
func DomainFromHostname(hostname string) (string, error) {
	if strings.TrimSpace(hostname) == "" {
		return "", invalidArgument("hostname cannot be empty")
	}
	labels := strings.Split(hostname, ".")
	if len(labels) < 2 {
		return "", invalidArgument("hostname %q must contain at least a domain and TLD", hostname)
	}
	if len(labels) == 2 {
		return hostname, nil
	}
	return strings.Join(labels[len(labels)-2:], "."), nil
}
