package emergency

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation/internal/domain"
)

func TestHaversineKm(t *testing.T) {
	// Hanoi to Ho Chi Minh City.
	d := haversineKm(21.0285, 105.8542, 10.8231, 106.6297)
	assert.InDelta(t, 1137, d, 5)
	assert.Zero(t, haversineKm(10, 10, 10, 10))
}

func contact(lat, lon *float64, withType bool) domain.CustomerContact {
	c := domain.CustomerContact{Email: uuid.NewString() + "@example.com"}
	c.AccountID = uuid.New()
	c.Latitude, c.Longitude = lat, lon
	if withType {
		g, rh := domain.GroupO, domain.RhNegative
		c.BloodGroup, c.BloodRh = &g, &rh
	}
	return c
}

func f64(v float64) *float64 { return &v }

func TestRankContacts(t *testing.T) {
	origin := domain.Location{Latitude: f64(21.0285), Longitude: f64(105.8542)}
	far := contact(f64(10.8231), f64(106.6297), true)
	near := contact(f64(21.03), f64(105.86), true)
	mid := contact(f64(21.2), f64(105.9), true)
	unlocated := contact(nil, nil, true)
	untyped := contact(f64(21.03), f64(105.86), false)

	got := rankContacts(origin, []domain.CustomerContact{far, unlocated, mid, untyped, near}, 50, 10)
	require.Len(t, got, 3)
	assert.Equal(t, near.AccountID, got[0].ID)
	assert.Equal(t, mid.AccountID, got[1].ID)
	assert.Equal(t, unlocated.AccountID, got[2].ID)
	require.NotNil(t, got[0].DistanceKm)
	assert.Less(t, *got[0].DistanceKm, *got[1].DistanceKm)
	assert.Nil(t, got[2].DistanceKm)
	assert.Equal(t, "O-", got[0].BloodType)

	limited := rankContacts(origin, []domain.CustomerContact{far, unlocated, mid, near}, 50, 1)
	require.Len(t, limited, 1)
	assert.Equal(t, near.AccountID, limited[0].ID)
}

func TestRankContacts_NoOriginKeepsOrder(t *testing.T) {
	a := contact(f64(1), f64(1), true)
	b := contact(nil, nil, true)

	got := rankContacts(domain.Location{}, []domain.CustomerContact{a, b}, 50, 0)
	require.Len(t, got, 2)
	assert.Equal(t, a.AccountID, got[0].ID)
	assert.Nil(t, got[0].DistanceKm)
}
