package aac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepteams/dxtex/internal/bitio"
)

// ascLC44k1Stereo is AAC-LC, 44100 Hz, channel configuration 2.
var ascLC44k1Stereo = []byte{0x12, 0x10}

func TestParseAudioSpecificConfig_LC(t *testing.T) {
	c, err := ParseAudioSpecificConfig(ascLC44k1Stereo)
	require.NoError(t, err)

	assert.Equal(t, AOTAACLC, c.ObjectType)
	assert.Equal(t, 4, c.SamplingIndex)
	assert.Equal(t, 44100, c.SampleRate)
	assert.Equal(t, 2, c.ChannelConfig)
	assert.Equal(t, 2, c.Channels)
	assert.Equal(t, -1, c.SBR)
	assert.Equal(t, AOTNull, c.ExtObjectType)
	assert.Equal(t, 13, c.ConfigBits)
}

func TestParseAudioSpecificConfig_ExplicitSBR(t *testing.T) {
	// HE-AAC: AOT 5, 22050 Hz core, extension rate 44100, then the real
	// object type (LC).
	asc := []byte{0x2B, 0x92, 0x08}

	c, err := ParseAudioSpecificConfig(asc)
	require.NoError(t, err)

	assert.Equal(t, AOTAACLC, c.ObjectType)
	assert.Equal(t, 22050, c.SampleRate)
	assert.Equal(t, 1, c.SBR)
	assert.Equal(t, AOTSBR, c.ExtObjectType)
	assert.Equal(t, 44100, c.ExtSampleRate)
	assert.Equal(t, 22, c.ConfigBits)
}

func TestParseAudioSpecificConfig_ImplicitSBR(t *testing.T) {
	// LC config followed by a 0x2b7 sync extension announcing SBR at
	// 48000 Hz.
	asc := []byte{0x12, 0x10, 0x56, 0xE5, 0x98}

	c, err := ParseAudioSpecificConfig(asc)
	require.NoError(t, err)

	assert.Equal(t, AOTAACLC, c.ObjectType)
	assert.Equal(t, 13, c.ConfigBits)
	assert.Equal(t, AOTSBR, c.ExtObjectType)
	assert.Equal(t, 1, c.SBR)
	assert.Equal(t, 48000, c.ExtSampleRate)
}

func TestParseAudioSpecificConfig_EscapeRate(t *testing.T) {
	// Sampling index 15 escapes to an explicit 24-bit rate (12345 Hz).
	asc := []byte{0x17, 0x80, 0x30, 0x39, 0x10}

	c, err := ParseAudioSpecificConfig(asc)
	require.NoError(t, err)

	assert.Equal(t, AOTAACLC, c.ObjectType)
	assert.Equal(t, 0xF, c.SamplingIndex)
	assert.Equal(t, 12345, c.SampleRate)
	assert.Equal(t, 1, c.ChannelConfig)
}

func TestParseAudioSpecificConfig_EscapeObjectType(t *testing.T) {
	// Object type 31 escapes to 32 + 6 bits.
	asc := []byte{0xF8, 0x04, 0x20}

	c, err := ParseAudioSpecificConfig(asc)
	require.NoError(t, err)
	assert.Equal(t, 32, c.ObjectType)
	assert.Equal(t, 44100, c.SampleRate)
}

func TestParseAudioSpecificConfig_Empty(t *testing.T) {
	_, err := ParseAudioSpecificConfig(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWriteADTSHeader(t *testing.T) {
	c, err := ParseAudioSpecificConfig(ascLC44k1Stereo)
	require.NoError(t, err)

	var hdr [ADTSHeaderSize]byte
	require.NoError(t, WriteADTSHeader(hdr[:], c, 100))

	want := []byte{0xFF, 0xF1, 0x50, 0x80, 0x0D, 0x7F, 0xFC}
	assert.Equal(t, want, hdr[:])
}

func TestWriteADTSHeader_Rejections(t *testing.T) {
	t.Run("object type", func(t *testing.T) {
		c := &Config{ObjectType: AOTSBR, SamplingIndex: 4}
		err := WriteADTSHeader(make([]byte, ADTSHeaderSize), c, 100)
		assert.ErrorIs(t, err, ErrNotInADTS)
	})

	t.Run("escape rate", func(t *testing.T) {
		c := &Config{ObjectType: AOTAACLC, SamplingIndex: 0xF}
		err := WriteADTSHeader(make([]byte, ADTSHeaderSize), c, 100)
		assert.ErrorIs(t, err, ErrNotInADTS)
	})

	t.Run("frame too large", func(t *testing.T) {
		c := &Config{ObjectType: AOTAACLC, SamplingIndex: 4, ChannelConfig: 2}
		err := WriteADTSHeader(make([]byte, ADTSHeaderSize), c, 8185)
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
}

func TestWriteADTSHeader_FrameLengthBound(t *testing.T) {
	c := &Config{ObjectType: AOTAACLC, SamplingIndex: 4, ChannelConfig: 2}

	// 8184 + 7 == 8191 is the largest representable frame.
	var hdr [ADTSHeaderSize]byte
	require.NoError(t, WriteADTSHeader(hdr[:], c, 8184))

	r, err := bitio.NewReader(hdr[:], bitio.MSBFirst)
	require.NoError(t, err)
	r.Skip(12 + 1 + 2 + 1 + 2 + 4 + 1 + 3 + 1 + 1 + 1 + 1)
	assert.Equal(t, uint32(8191), r.Read(13))
}

func TestWriteLATMMuxConfig(t *testing.T) {
	c, err := ParseAudioSpecificConfig(ascLC44k1Stereo)
	require.NoError(t, err)

	buf := make([]byte, 16)
	w := bitio.NewWriter(buf, bitio.MSBFirst)
	require.NoError(t, WriteLATMMuxConfig(w, c, ascLC44k1Stereo))

	assert.Equal(t, 44, w.BitsWritten())
	w.Flush()
	want := []byte{0x40, 0x00, 0x24, 0x20, 0x3F, 0xC0}
	assert.Equal(t, want, w.Bytes()[:6])
}

func TestWriteLATMMuxConfig_RoundTrip(t *testing.T) {
	// The ASC embedded in the mux config must parse back to the same
	// core fields.
	c, err := ParseAudioSpecificConfig(ascLC44k1Stereo)
	require.NoError(t, err)

	buf := make([]byte, 16)
	w := bitio.NewWriter(buf, bitio.MSBFirst)
	require.NoError(t, WriteLATMMuxConfig(w, c, ascLC44k1Stereo))
	w.Flush()

	r, err := bitio.NewReader(w.Bytes(), bitio.MSBFirst)
	require.NoError(t, err)
	r.Skip(15) // mux layout fields before the embedded config

	assert.Equal(t, uint32(AOTAACLC), r.Read(5))
	assert.Equal(t, uint32(4), r.Read(4))
	assert.Equal(t, uint32(2), r.Read(4))
}
