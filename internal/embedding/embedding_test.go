package embedding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitra-labs/ledgercore/internal/embedding"
)

func TestHashingProviderDeterministic(t *testing.T) {
	p := embedding.NewHashingProvider()

	a, err := p.Embed(context.Background(), "TRANSFER TO SAVINGS 123")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "TRANSFER TO SAVINGS 123")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashingProviderCaseInsensitive(t *testing.T) {
	p := embedding.NewHashingProvider()

	a, _ := p.Embed(context.Background(), "Netflix Monthly")
	b, _ := p.Embed(context.Background(), "NETFLIX monthly")

	assert.Equal(t, a, b)
}

func TestHashingProviderDistinguishesTexts(t *testing.T) {
	p := embedding.NewHashingProvider()

	a, _ := p.Embed(context.Background(), "salary payment acme corp")
	b, _ := p.Embed(context.Background(), "grocery store checkout")

	assert.NotEqual(t, a, b)
}

func TestHashingProviderEmptyText(t *testing.T) {
	p := embedding.NewHashingProvider()

	vec, err := p.Embed(context.Background(), "")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}
