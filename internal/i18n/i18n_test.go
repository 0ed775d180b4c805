package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizeUsesPreferredLanguage(t *testing.T) {
	tr, err := New("az")
	require.NoError(t, err)

	data := map[string]any{"Name": "Marlboro Red", "Available": 3}

	assert.Equal(t, "Insufficient stock for Marlboro Red. Available: 3",
		tr.Localize("InsufficientStock", data, "en"))
	assert.Equal(t, "Marlboro Red üçün stok kifayət deyil. Mövcud: 3",
		tr.Localize("InsufficientStock", data, "az"))
}

func TestLocalizeFallsBackToDefault(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "Debt not found", tr.Localize("DebtNotFound", nil))
	assert.Equal(t, "Debt not found", tr.Localize("DebtNotFound", nil, "fr"))
}

func TestLocalizeUnknownID(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "NoSuchMessage", tr.Localize("NoSuchMessage", nil, "en"))
}

func TestLanguages(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"en", "az"}, tr.Languages())
}
