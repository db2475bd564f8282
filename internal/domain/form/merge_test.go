package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDraft_KeepsPersistedOnEmpty(t *testing.T) {
	persisted := map[string]string{"crimeConfirmation": "Sim", "crimeConfirmationDetails": "X"}

	got := MergeDraft(persisted, map[string]string{"crimeConfirmation": ""})
	assert.Equal(t, "Sim", got["crimeConfirmation"])
	assert.Equal(t, "X", got["crimeConfirmationDetails"])

	got = MergeDraft(persisted, map[string]string{})
	assert.Equal(t, persisted, got)
}

func TestMergeDraft_OverwritesWithNonEmpty(t *testing.T) {
	persisted := map[string]string{"crimeConfirmation": "Sim"}
	got := MergeDraft(persisted, map[string]string{"crimeConfirmation": "Não", "drugAbuseConfirmation": ""})
	assert.Equal(t, "Não", got["crimeConfirmation"])
	assert.Equal(t, "", got["drugAbuseConfirmation"])
	assert.Equal(t, "Sim", persisted["crimeConfirmation"], "input must not be mutated")
}

func TestMergeSubmit_SentValuesWin(t *testing.T) {
	persisted := map[string]string{"spouseName": "Maria", "firstName": "Ana"}
	got := MergeSubmit(persisted, map[string]string{"spouseName": ""})
	assert.Equal(t, "", got["spouseName"])
	assert.Equal(t, "Ana", got["firstName"])
}

func TestRestrict(t *testing.T) {
	sec, _ := SectionByKey("passport")
	got := Restrict(sec, map[string]string{"passportNumber": "AB1", "crimeConfirmation": "Sim"})
	assert.Equal(t, map[string]string{"passportNumber": "AB1"}, got)
}
