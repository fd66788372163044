package catalog

// TokenInfo describes a known SPL token
type TokenInfo struct {
	Symbol   string
	Decimals uint8
}

// WellKnownTokens maps widely traded mint addresses to their metadata so the
// common pairs never need an RPC round trip.
var WellKnownTokens = map[string]TokenInfo{
	"So11111111111111111111111111111111111111112":  {Symbol: "SOL", Decimals: 9},
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Decimals: 6},
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {Symbol: "USDT", Decimals: 6},
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  {Symbol: "mSOL", Decimals: 9},
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": {Symbol: "ETH", Decimals: 8},
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {Symbol: "BONK", Decimals: 5},
	"7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr": {Symbol: "POPCAT", Decimals: 9},
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  {Symbol: "JUP", Decimals: 6},
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": {Symbol: "RAY", Decimals: 6},
	"9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E": {Symbol: "BTC", Decimals: 6},
}

// Symbol returns the ticker for a known mint, or a shortened form of the mint
// address when unknown.
func Symbol(mint string) string {
	if info, ok := WellKnownTokens[mint]; ok {
		return info.Symbol
	}
	if len(mint) > 8 {
		return mint[:4] + ".." + mint[len(mint)-4:]
	}
	return mint
}
