package concordance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractCountry(t *testing.T) {
	testCases := []struct {
		title   string
		cleaned string
		country string
		ok      bool
	}{
		{
			title:   "Historia antigua ESPAÑA",
			cleaned: "Historia antigua",
			country: "ESPAÑA",
			ok:      true,
		},
		{
			title:   "Crónica de Indias III",
			cleaned: "Crónica de Indias III",
		},
		{
			title:   "Ensayo breve",
			cleaned: "Ensayo breve",
		},
		{
			title:   "Relación del viaje NUEVA ESPAÑA.",
			cleaned: "Relación del viaje",
			country: "NUEVA ESPAÑA",
			ok:      true,
		},
		{
			title:   "Memorial [PERÚ];",
			cleaned: "Memorial [",
			country: "PERÚ",
			ok:      true,
		},
		{
			// the last standalone uppercase run wins when nothing is
			// anchored at the end
			title:   "Cartas de MÉXICO y CHILE, 1590",
			cleaned: "Cartas de MÉXICO y1590",
			country: "CHILE",
			ok:      true,
		},
		{
			// a trailing volume number hides any earlier country
			title:   "Historia de ESPAÑA tomo IV",
			cleaned: "Historia de ESPAÑA tomo IV",
		},
		{
			title:   "Tratado de VENEZUELA tomo 2",
			cleaned: "Tratado detomo 2",
			country: "VENEZUELA",
			ok:      true,
		},
		{
			// uppercase letters glued to lowercase ones are not words
			title:   "Obras de MARtín",
			cleaned: "Obras de MARtín",
		},
		{
			title:   "",
			cleaned: "",
		},
	}

	for _, test := range testCases {
		t.Run(test.title, func(t *testing.T) {
			cleaned, country, ok := ExtractCountry(test.title)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.country, country)
			require.Equal(t, test.cleaned, cleaned)
		})
	}
}

func TestRemoveToken(t *testing.T) {
	require.Equal(t, "ab", removeToken("a PAIS. b", "PAIS"))
	require.Equal(t, "Memorial (", removeToken("Memorial (PERÚ)", "PERÚ"))
	require.Equal(t, "ab", removeToken("a PAIS, PAIS b", "PAIS"))
	require.Equal(t, "sin cambios", removeToken("sin cambios", "PAIS"))
}

func TestUpperRuns(t *testing.T) {
	require.Equal(t, []string{"ESPAÑA", "PERÚ"}, upperRuns("de ESPAÑA al PERÚ", 3))
	require.Equal(t, []string{"ABC"}, upperRuns("AB ABC", 3))
	require.Nil(t, upperRuns("ABCd eABC _ABC", 3))
}
