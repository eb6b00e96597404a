package domain

// Strategy is the serving policy selected for an intercepted request.
type Strategy string

const (
	// StrategyPassthrough leaves the request to the network with no cache interaction.
	StrategyPassthrough Strategy = "passthrough"
	// StrategyCacheFirst serves from cache and falls back to the network on a miss.
	StrategyCacheFirst Strategy = "cache-first"
	// StrategyNetworkFirst serves from the network and falls back to cache on failure.
	StrategyNetworkFirst Strategy = "network-first"
	// StrategyStaleWhileRevalidate serves from cache and refreshes it in the background.
	StrategyStaleWhileRevalidate Strategy = "stale-while-revalidate"
)

// Intercepted reports whether the strategy takes part in serving the request.
func (s Strategy) Intercepted() bool {
	return s != StrategyPassthrough && s != ""
}
