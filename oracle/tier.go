package oracle

import (
	"net/url"
	"strings"

	"signal-desk/models"
)

// Source whitelist domains per tier. Anything unlisted is treated as
// community-tier (X/Telegram/forum rumor level).
var (
	officialDomains = []string{"binance.com", "okx.com", "sec.gov", "ethereum.org", "solana.com"}
	tier1Domains    = []string{"coindesk.com", "theblock.co", "reuters.com", "bloomberg.com"}
	tier2Domains    = []string{"odaily.news", "foresightnews.pro", "panewslab.com"}
)

// URLTier classifies a source URL into tiers 1-4 (lower is stronger).
// Deterministic whitelist lookup, not an oracle call.
func URLTier(rawURL string) models.SourceTier {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return models.TierCommunity
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch {
	case matchesDomain(host, officialDomains):
		return models.TierOfficial
	case matchesDomain(host, tier1Domains):
		return models.TierFirstMedia
	case matchesDomain(host, tier2Domains):
		return models.TierSecondary
	default:
		return models.TierCommunity
	}
}

// matchesDomain reports whether host equals a whitelisted domain or is a
// subdomain of one.
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
