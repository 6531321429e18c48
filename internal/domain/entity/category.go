package entity

// Category is a fixed taxonomy code assigned to an entity name
type Category string

const (
	CategoryExchange     Category = "Exchange"
	CategoryNFTTrader    Category = "NFT Trader"
	CategoryRugPull      Category = "Rug Pull"
	CategoryBridge       Category = "Bridge"
	CategoryAirdrop      Category = "Airdrop"
	CategoryDeFiProtocol Category = "DeFi Protocol"
	CategoryOther        Category = "Other"
)

// CategoryPriority is the order in which keyword rules are evaluated.
// Other is the fallback and never has keywords of its own.
var CategoryPriority = []Category{
	CategoryExchange,
	CategoryNFTTrader,
	CategoryRugPull,
	CategoryBridge,
	CategoryAirdrop,
	CategoryDeFiProtocol,
}

// CategoryRule maps a category to the keywords that select it
type CategoryRule struct {
	Category Category `json:"category" mapstructure:"category"`
	Keywords []string `json:"keywords" mapstructure:"keywords"`
}

// IsValid reports whether c is part of the taxonomy
func (c Category) IsValid() bool {
	if c == CategoryOther {
		return true
	}
	for _, p := range CategoryPriority {
		if p == c {
			return true
		}
	}
	return false
}
