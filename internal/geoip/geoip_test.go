package geoip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlag(t *testing.T) {
	require.Equal(t, "🇩🇪", Flag("de"))
	require.Equal(t, "🇺🇸", Flag("US"))
	require.Equal(t, "🌐", Flag(""))
	require.Equal(t, "🌐", Flag("XYZ"))
}

func TestCountryWithoutDatabase(t *testing.T) {
	require.False(t, Enabled())
	require.Equal(t, "", Country("8.8.8.8"))
	require.Equal(t, "", Country("not-an-ip"))
}
