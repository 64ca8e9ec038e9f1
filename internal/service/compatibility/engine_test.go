package compatibility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation/internal/domain"
)

func bt(s string) domain.BloodType {
	t, err := domain.ParseBloodType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewDefault()
	require.NoError(t, err)
	return e
}

// redCellRule is the textbook ABO/Rh rule for red-cell products.
func redCellRule(donor, recipient domain.BloodType) bool {
	groupOK := donor.Group == recipient.Group ||
		donor.Group == domain.GroupO ||
		(recipient.Group == domain.GroupAB && (donor.Group == domain.GroupA || donor.Group == domain.GroupB))
	rhOK := recipient.Rh == domain.RhPositive || donor.Rh == domain.RhNegative
	return groupOK && rhOK
}

func TestEngine_RedCellTableMatchesRule(t *testing.T) {
	e := newEngine(t)
	for _, component := range []domain.ComponentType{domain.ComponentWholeBlood, domain.ComponentRBC} {
		for _, donor := range domain.AllBloodTypes {
			for _, recipient := range domain.AllBloodTypes {
				assert.Equalf(t, redCellRule(donor, recipient), e.IsCompatible(donor, recipient, component),
					"%s: %s -> %s", component, donor, recipient)
			}
		}
	}
}

func TestEngine_UniversalDonorAndRecipient(t *testing.T) {
	e := newEngine(t)

	for _, recipient := range domain.AllBloodTypes {
		donors, err := e.Donors(recipient, domain.ComponentWholeBlood)
		require.NoError(t, err)
		assert.Contains(t, donors, bt("O-"), recipient.String())
	}

	donors, err := e.Donors(bt("AB+"), domain.ComponentWholeBlood)
	require.NoError(t, err)
	assert.Equal(t, domain.AllBloodTypes, donors)
}

func TestEngine_DonorsInRegistryOrder(t *testing.T) {
	e := newEngine(t)

	donors, err := e.Donors(bt("A+"), domain.ComponentWholeBlood)
	require.NoError(t, err)
	assert.Equal(t, []domain.BloodType{bt("A+"), bt("A-"), bt("O+"), bt("O-")}, donors)

	donors, err = e.Donors(bt("O-"), domain.ComponentRBC)
	require.NoError(t, err)
	assert.Equal(t, []domain.BloodType{bt("O-")}, donors)
}

func TestEngine_Recipients(t *testing.T) {
	e := newEngine(t)

	recipients, err := e.Recipients(bt("O-"), domain.ComponentRBC)
	require.NoError(t, err)
	assert.Equal(t, domain.AllBloodTypes, recipients)

	recipients, err = e.Recipients(bt("AB+"), domain.ComponentWholeBlood)
	require.NoError(t, err)
	assert.Equal(t, []domain.BloodType{bt("AB+")}, recipients)
}

func TestEngine_PlasmaIsInverted(t *testing.T) {
	e := newEngine(t)

	donors, err := e.Donors(bt("O-"), domain.ComponentPlasma)
	require.NoError(t, err)
	assert.Equal(t, domain.AllBloodTypes, donors)

	recipients, err := e.Recipients(bt("AB-"), domain.ComponentPlasma)
	require.NoError(t, err)
	assert.Equal(t, domain.AllBloodTypes, recipients)

	assert.False(t, e.IsCompatible(bt("O+"), bt("A+"), domain.ComponentPlasma))
}

func TestEngine_PlateletsKeepRhRestriction(t *testing.T) {
	e := newEngine(t)
	assert.True(t, e.IsCompatible(bt("AB-"), bt("A-"), domain.ComponentPlatelets))
	assert.False(t, e.IsCompatible(bt("AB+"), bt("A-"), domain.ComponentPlatelets))
}

func TestEngine_ReturnedSlicesAreCopies(t *testing.T) {
	e := newEngine(t)
	donors, err := e.Donors(bt("AB+"), domain.ComponentWholeBlood)
	require.NoError(t, err)
	donors[0] = bt("O-")

	again, err := e.Donors(bt("AB+"), domain.ComponentWholeBlood)
	require.NoError(t, err)
	assert.Equal(t, bt("A+"), again[0])
}

func TestEngine_UnknownInput(t *testing.T) {
	e := newEngine(t)

	_, err := e.Donors(domain.BloodType{Group: "C", Rh: domain.RhPositive}, domain.ComponentRBC)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.Donors(bt("A+"), domain.ComponentType("SERUM"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.False(t, e.IsCompatible(bt("O-"), bt("A+"), domain.ComponentType("SERUM")))
}

func TestEngine_PairsAreUnique(t *testing.T) {
	e := newEngine(t)
	pairs := e.Pairs()

	seen := make(map[domain.BloodCompatibility]struct{}, len(pairs))
	for _, p := range pairs {
		_, dup := seen[p]
		assert.False(t, dup, p)
		seen[p] = struct{}{}
		assert.True(t, e.IsCompatible(p.Donor(), p.Recipient(), p.ComponentType))
	}
	// 27 each for whole blood, RBC and platelets; 36 for plasma.
	assert.Len(t, pairs, 117)

	count := 0
	for _, c := range e.Components() {
		for _, r := range domain.AllBloodTypes {
			d, err := e.Donors(r, c)
			require.NoError(t, err)
			count += len(d)
		}
	}
	assert.Equal(t, count, len(pairs))
	assert.Equal(t, domain.Components, e.Components())
}

func TestParseRules_Rejects(t *testing.T) {
	_, err := ParseRules([]byte("components:\n  RBC:\n    groups: {}\n"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseRules([]byte("components: ["))
	assert.Error(t, err)
}

func TestLoadRules_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, defaultRules, 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, rules, len(domain.Components))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
