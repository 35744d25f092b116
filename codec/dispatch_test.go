package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mycophonic/raop"
	"github.com/mycophonic/raop/codec"
)

func TestSelectorResolvesPCMOnce(t *testing.T) {
	sess := &raop.Session{ID: "s1", CodecFormat: raop.FormatPCM}

	var sel codec.Selector

	dec1, err := sel.Select(sess)
	require.NoError(t, err)

	dec2, err := sel.Select(sess)
	require.NoError(t, err)
	require.Same(t, dec1, dec2)
}

func TestSelectorFallsBackOnCompressionType(t *testing.T) {
	sess := &raop.Session{ID: "s2", CodecFormat: raop.FormatUnknown, CompressionType: 1}

	var sel codec.Selector

	dec, err := sel.Select(sess)
	require.NoError(t, err)
	require.Equal(t, 352*2*2, dec.OutputSize())
}

func TestDefaultFrameLengthPerFormat(t *testing.T) {
	require.Equal(t, 352, codec.DefaultFrameLength(raop.FormatALAC))
	require.Equal(t, 1024, codec.DefaultFrameLength(raop.FormatAAC))
	require.Equal(t, 480, codec.DefaultFrameLength(raop.FormatAACELD))
	require.Equal(t, 0, codec.DefaultFrameLength(raop.FormatPCM))
}
