package pcm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mycophonic/raop/codec/pcm"
)

func TestDecodePassesThroughUnchanged(t *testing.T) {
	var dec pcm.Decoder

	require.NoError(t, dec.Configure(44100, 2, 16, 352))
	require.Equal(t, 352*2*2, dec.OutputSize())

	in := []byte{1, 2, 3, 4}

	out, err := dec.Decode(in)
	require.NoError(t, err)
	require.Equal(t, in, out)
	require.NoError(t, dec.Close())
}
