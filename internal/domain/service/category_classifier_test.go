package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-cluster-analyzer/internal/domain/entity"
)

func TestCategoryClassifier_Classify(t *testing.T) {
	c := NewCategoryClassifier()

	tests := []struct {
		name string
		want entity.Category
	}{
		{"Coinbase Hot Wallet 2", entity.CategoryExchange},
		{"Jupiter Aggregator v6", entity.CategoryExchange},
		{"Magic Eden v2", entity.CategoryNFTTrader},
		{"Tensor Swap", entity.CategoryNFTTrader},
		{"Bricked Memecoin Deployer", entity.CategoryRugPull},
		{"Allbridge Core", entity.CategoryBridge},
		{"PENGU Claim", entity.CategoryAirdrop},
		{"Kamino Lend", entity.CategoryDeFiProtocol},
		{"Marinade Staking", entity.CategoryOther},
		{entity.UnknownAddress, entity.CategoryOther},
		{entity.UnknownProgram, entity.CategoryOther},
		{"", entity.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestCategoryClassifier_PriorityOrder(t *testing.T) {
	c := NewCategoryClassifier()

	// matches both exchange and nft keywords
	assert.Equal(t, entity.CategoryExchange, c.Classify("Orca NFT Drop"))
	assert.Equal(t, entity.CategoryExchange, c.Classify("Raydium Rug Tracker"))
	// matches both rug pull and defi keywords
	assert.Equal(t, entity.CategoryRugPull, c.Classify("Scam Vault"))
}

func TestCategoryClassifier_Overrides(t *testing.T) {
	c := NewCategoryClassifier(
		entity.CategoryRule{Category: entity.CategoryBridge, Keywords: []string{"Wormhole", " "}},
		entity.CategoryRule{Category: entity.CategoryOther, Keywords: []string{"marinade"}},
		entity.CategoryRule{Category: "Gaming", Keywords: []string{"star atlas"}},
	)

	assert.Equal(t, entity.CategoryBridge, c.Classify("Wormhole Token Bridge"))
	assert.Equal(t, entity.CategoryOther, c.Classify("Allbridge Core"))
	assert.Equal(t, entity.CategoryOther, c.Classify("Marinade Staking"))
	assert.Equal(t, entity.CategoryOther, c.Classify("Star Atlas"))

	rules := c.Rules()
	require.Len(t, rules, len(entity.CategoryPriority))
	for i, r := range rules {
		assert.Equal(t, entity.CategoryPriority[i], r.Category)
	}
	assert.Equal(t, []string{"wormhole"}, rules[3].Keywords)
}

func TestCategoryClassifier_RulesIsCopy(t *testing.T) {
	c := NewCategoryClassifier()
	rules := c.Rules()
	rules[0].Keywords[0] = "mutated"

	assert.Equal(t, entity.CategoryExchange, c.Classify("OpenBook Market"))
}

func TestCategoryClassifier_ConcurrentClassify(t *testing.T) {
	c := NewCategoryClassifier()
	names := []string{"Raydium AMM", "Tensor Trade", "Kamino Lend", "Unknown Address"}
	want := []entity.Category{entity.CategoryExchange, entity.CategoryNFTTrader, entity.CategoryDeFiProtocol, entity.CategoryOther}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				n := i % len(names)
				assert.Equal(t, want[n], c.Classify(names[n]))
			}
		}()
	}
	wg.Wait()
}
