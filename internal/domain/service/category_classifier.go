package service

import (
	"strings"

	"wallet-cluster-analyzer/internal/domain/entity"

	lru "github.com/hashicorp/golang-lru/v2"
)

// classifyCacheSize bounds the number of memoized name lookups
const classifyCacheSize = 4096

// CategoryClassifier maps entity names onto the category taxonomy using an ordered
// keyword rule table. The first rule with a matching keyword wins.
type CategoryClassifier struct {
	rules []entity.CategoryRule
	cache *lru.Cache[string, entity.Category]
}

// DefaultCategoryRules returns the built-in keyword table in priority order
func DefaultCategoryRules() []entity.CategoryRule {
	return []entity.CategoryRule{
		{
			Category: entity.CategoryExchange,
			Keywords: []string{"openbook", "raydium", "orca", "jupiter", "meteora", "coinbase"},
		},
		{
			Category: entity.CategoryNFTTrader,
			Keywords: []string{"magic eden", "nft", "digitaleyes", "tensor"},
		},
		{
			Category: entity.CategoryRugPull,
			Keywords: []string{"rug", "bricked", "scam", "meme"},
		},
		{
			Category: entity.CategoryBridge,
			Keywords: []string{"allbridge"},
		},
		{
			Category: entity.CategoryAirdrop,
			Keywords: []string{"airdrop", "pengu"},
		},
		{
			Category: entity.CategoryDeFiProtocol,
			Keywords: []string{"uxd", "usdh", "softt", "vault", "solend", "lending", "lend", "kamino", "parcl"},
		},
	}
}

// NewCategoryClassifier creates a classifier from the default table with overrides applied.
// An override replaces the keyword list of its category; the evaluation order stays fixed.
// Overrides naming Other or an unknown category are ignored.
func NewCategoryClassifier(overrides ...entity.CategoryRule) *CategoryClassifier {
	byCategory := make(map[entity.Category][]string)
	for _, rule := range DefaultCategoryRules() {
		byCategory[rule.Category] = rule.Keywords
	}
	for _, o := range overrides {
		if o.Category == entity.CategoryOther || !o.Category.IsValid() {
			continue
		}
		byCategory[o.Category] = o.Keywords
	}

	rules := make([]entity.CategoryRule, 0, len(entity.CategoryPriority))
	for _, category := range entity.CategoryPriority {
		keywords := make([]string, 0, len(byCategory[category]))
		for _, kw := range byCategory[category] {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		rules = append(rules, entity.CategoryRule{Category: category, Keywords: keywords})
	}

	// only fails for a non-positive size
	cache, _ := lru.New[string, entity.Category](classifyCacheSize)

	return &CategoryClassifier{rules: rules, cache: cache}
}

// Classify returns the category for a name
func (c *CategoryClassifier) Classify(name string) entity.Category {
	if category, ok := c.cache.Get(name); ok {
		return category
	}
	category := c.classify(strings.ToLower(name))
	c.cache.Add(name, category)
	return category
}

func (c *CategoryClassifier) classify(name string) entity.Category {
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(name, kw) {
				return rule.Category
			}
		}
	}
	return entity.CategoryOther
}

// Rules returns a copy of the effective rule table
func (c *CategoryClassifier) Rules() []entity.CategoryRule {
	out := make([]entity.CategoryRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = entity.CategoryRule{
			Category: r.Category,
			Keywords: append([]string(nil), r.Keywords...),
		}
	}
	return out
}
