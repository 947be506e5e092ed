package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		direction Direction
		amount    int64
		want      int64
	}{
		{DirectionDeposit, 100, 100},
		{DirectionWithdrawal, 100, -100},
	}
	for _, tt := range tests {
		txn := Transaction{Direction: tt.direction, Amount: decimal.NewFromInt(tt.amount)}
		assert.True(t, txn.SignedAmount().Equal(decimal.NewFromInt(tt.want)),
			"%s %d", tt.direction, tt.amount)
	}
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, DefaultPageLimit, Page{}.Normalize().Limit)
	assert.Equal(t, MaxPageLimit, Page{Limit: 10_000}.Normalize().Limit)
	assert.Equal(t, 5, Page{Limit: 5}.Normalize().Limit)
}
