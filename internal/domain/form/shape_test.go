package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSectionShape_Accepts(t *testing.T) {
	sec, _ := SectionByKey("security")
	errs, err := CheckSectionShape(sec, map[string]interface{}{
		"crimeConfirmation":        "Sim",
		"crimeConfirmationDetails": "detalhes",
		"drugAbuseConfirmation":    "",
	})
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestCheckSectionShape_Rejects(t *testing.T) {
	sec, _ := SectionByKey("security")
	errs, err := CheckSectionShape(sec, map[string]interface{}{
		"crimeConfirmation":        "Talvez",
		"crimeConfirmationDetails": 5,
		"firstName":                "Ana",
	})
	require.NoError(t, err)
	require.Len(t, errs, 3)

	byPath := map[string]string{}
	for _, fe := range errs {
		byPath[fe.Path] = fe.Message
	}
	assert.Equal(t, MsgInvalidOption, byPath["crimeConfirmation"])
	assert.Equal(t, msgUnknownField, byPath["firstName"])
	assert.Equal(t, msgWrongType, byPath["crimeConfirmationDetails"])
}

func TestCheckSectionShape_MaxLength(t *testing.T) {
	sec, _ := SectionByKey("personal")
	errs, err := CheckSectionShape(sec, map[string]interface{}{"firstName": strings.Repeat("a", 256)})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, msgTooLong, errs[0].Message)
}

func TestCheckDocumentShape(t *testing.T) {
	payload := map[string]interface{}{}
	for k, v := range validDocument() {
		payload[k] = v
	}
	errs, err := CheckDocumentShape(payload)
	require.NoError(t, err)
	assert.Empty(t, errs)

	payload["notAField"] = "x"
	errs, err = CheckDocumentShape(payload)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "notAField", errs[0].Path)
}

func TestToValues(t *testing.T) {
	got := ToValues(map[string]interface{}{"a": "1", "b": 2})
	assert.Equal(t, map[string]string{"a": "1"}, got)
}
