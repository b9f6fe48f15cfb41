package browser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecPath(t *testing.T) {
	path, err := ExecPath("chrome")
	require.NoError(t, err)
	require.Equal(t, "", path)

	path, err = ExecPath("")
	require.NoError(t, err)
	require.Equal(t, "", path)

	_, err = ExecPath("Firefox")
	require.ErrorIs(t, err, ErrUnsupportedBrowser)

	_, err = ExecPath("netscape")
	require.ErrorIs(t, err, ErrUnsupportedBrowser)
	require.ErrorContains(t, err, `"netscape"`)
}

func TestJSString(t *testing.T) {
	require.Equal(t, `"td.texto a[href*='visualizar']"`, jsString("td.texto a[href*='visualizar']"))
	require.Equal(t, `"Siguiente \">>\""`, jsString(`Siguiente ">>"`))
}
