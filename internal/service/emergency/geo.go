package emergency

import (
	"math"
	"sort"

	"blood-donation/internal/domain"
)

const earthRadiusKm = 6371.0

// haversineKm is the great-circle distance between two WGS84 points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// rankContacts turns candidate customers into donor contacts. When origin has
// coordinates, located candidates farther than radiusKm are dropped and the
// rest are ordered nearest first; candidates without coordinates follow.
// At most limit contacts are returned.
func rankContacts(origin domain.Location, candidates []domain.CustomerContact, radiusKm float64, limit int) domain.DonorContacts {
	type ranked struct {
		contact  domain.DonorContact
		distance float64
		located  bool
	}

	out := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		bt, ok := c.Customer.BloodType()
		if !ok {
			continue
		}
		account := domain.Account{Email: c.Email, FirstName: c.FirstName, LastName: c.LastName}
		r := ranked{contact: domain.DonorContact{
			ID:        c.AccountID,
			Name:      account.FullName(),
			Email:     c.Email,
			Phone:     c.Phone,
			BloodType: bt.String(),
		}}
		if origin.HasCoordinates() && c.HasCoordinates() {
			d := haversineKm(*origin.Latitude, *origin.Longitude, *c.Latitude, *c.Longitude)
			if radiusKm > 0 && d > radiusKm {
				continue
			}
			d = math.Round(d*100) / 100
			r.distance, r.located = d, true
			r.contact.DistanceKm = &d
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].located != out[j].located {
			return out[i].located
		}
		return out[i].distance < out[j].distance
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	contacts := make(domain.DonorContacts, len(out))
	for i, r := range out {
		contacts[i] = r.contact
	}
	return contacts
}
