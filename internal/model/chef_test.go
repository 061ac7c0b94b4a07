package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteCents(t *testing.T) {
	perPerson := PriceRange{MinCents: 4500, MaxCents: 9000, Unit: PerPerson}
	assert.Equal(t, int64(18000), perPerson.QuoteCents(4))
	assert.Equal(t, int64(4500), perPerson.QuoteCents(0))

	perEvent := PriceRange{MinCents: 50000, Unit: PerEvent}
	assert.Equal(t, int64(50000), perEvent.QuoteCents(12))
}
