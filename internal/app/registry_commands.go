package app

import (
	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/spf13/cobra"
)

type venueListing struct {
	Name        string   `json:"name"`
	Domains     []string `json:"domains"`
	FeeBps      int64    `json:"fee_bps"`
	Established bool     `json:"established"`
}

type bridgeListing struct {
	Name        string   `json:"name"`
	Asset       string   `json:"asset"`
	Domains     []string `json:"domains"`
	FeeBps      int64    `json:"fee_bps"`
	DurationS   int64    `json:"duration_s"`
	Established bool     `json:"established"`
}

func (s *runtimeState) addRegistryCommands(root *cobra.Command) {
	venuesCmd := &cobra.Command{
		Use:   "venues",
		Short: "Inspect the venue registry",
	}
	venuesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List swap venues and bridges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			swaps := make([]venueListing, 0)
			seen := make(map[string]bool)
			for _, domain := range id.AllDomains() {
				for _, venue := range s.registry.SwapVenuesOn(domain) {
					if seen[venue.Name] {
						continue
					}
					seen[venue.Name] = true
					swaps = append(swaps, venueListing{
						Name:        venue.Name,
						Domains:     domainSlugs(venue.Domains),
						FeeBps:      venue.FeeBps,
						Established: s.registry.IsEstablishedVenue(venue.Name),
					})
				}
			}
			bridges := make([]bridgeListing, 0)
			for _, bridge := range s.registry.BridgeVenues() {
				bridges = append(bridges, bridgeListing{
					Name:        bridge.Name,
					Asset:       string(bridge.Asset),
					Domains:     domainSlugs(bridge.Domains),
					FeeBps:      bridge.FeeBps,
					DurationS:   bridge.DurationSeconds,
					Established: s.registry.IsEstablishedBridge(bridge.Name),
				})
			}
			return s.emitSuccess(map[string]any{
				"swap_venues":           swaps,
				"bridges":               bridges,
				"reference_fee_percent": s.registry.ReferenceFeePercent(),
			})
		},
	})

	domainsCmd := &cobra.Command{
		Use:   "domains",
		Short: "Inspect supported execution domains",
	}
	domainsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List supported domains",
		RunE: func(cmd *cobra.Command, _ []string) error {
			type domainListing struct {
				Domain  string `json:"domain"`
				ChainID int64  `json:"chain_id"`
				RPCURL  string `json:"rpc_url,omitempty"`
			}
			listings := make([]domainListing, 0, len(id.AllDomains()))
			for _, domain := range id.AllDomains() {
				chainID, _ := domain.EVMChainID()
				entry := domainListing{Domain: string(domain), ChainID: chainID}
				if url, ok := s.registry.RPCURL(domain); ok {
					entry.RPCURL = url
				}
				listings = append(listings, entry)
			}
			return s.emitSuccess(map[string]any{"domains": listings})
		},
	})

	root.AddCommand(venuesCmd, domainsCmd)
}

func domainSlugs(domains []id.Domain) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		out = append(out, string(d))
	}
	return out
}
