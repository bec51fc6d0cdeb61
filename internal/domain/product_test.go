package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestStatusForStock(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, StatusForStock(0))
	assert.Equal(t, StatusInStock, StatusForStock(1))
}

func TestProperty_StatusIsAlwaysDerivedFromStock(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("positive stock is in stock, zero is out", prop.ForAll(
		func(stock int) bool {
			status := StatusForStock(stock)
			if stock > 0 {
				return status == StatusInStock
			}
			return status == StatusOutOfStock
		},
		gen.IntRange(0, 1_000_000),
	))

	properties.TestingRun(t)
}
