// Package aac parses MPEG-4 AudioSpecificConfig records and writes the
// ADTS and LATM packetization headers derived from them.
package aac

import (
	"errors"
	"fmt"

	"github.com/deepteams/dxtex/internal/bitio"
)

// Audio object types referenced by the header writers.
const (
	AOTNull   = 0
	AOTAACLC  = 2
	AOTSBR    = 5
	AOTERBSAC = 22
	AOTPS     = 29
	AOTALS    = 36
)

// Errors returned by the parser and header writers.
var (
	ErrInvalidConfig = errors.New("aac: invalid audio specific config")
	ErrNotInADTS     = errors.New("aac: configuration not allowed in ADTS")
	ErrFrameTooLarge = errors.New("aac: ADTS frame size too large")
)

// adtsMaxFrameBytes is the 13-bit aac_frame_length bound.
const adtsMaxFrameBytes = (1 << 13) - 1

// ADTSHeaderSize is the size of the fixed plus variable ADTS header with
// no CRC.
const ADTSHeaderSize = 7

var sampleRates = [13]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

var channelCounts = [8]int{0, 1, 2, 3, 4, 5, 6, 8}

// Config holds the fields of a parsed AudioSpecificConfig.
type Config struct {
	ObjectType    int
	SamplingIndex int
	SampleRate    int
	ChannelConfig int
	Channels      int

	// SBR extension signaling: -1 implicit/unsignalled, 0 absent,
	// 1 present.
	SBR              int
	PS               int
	ExtObjectType    int
	ExtSamplingIndex int
	ExtSampleRate    int

	// ConfigBits is the bit offset of the object-specific part, where
	// the GASpecificConfig starts.
	ConfigBits int
}

func readObjectType(r *bitio.Reader) int {
	t := int(r.Read(5))
	if t == 31 {
		t = 32 + int(r.Read(6))
	}
	return t
}

func readSampleRate(r *bitio.Reader) (index, rate int) {
	index = int(r.Read(4))
	if index == 0xF {
		return index, int(r.ReadLong(24))
	}
	if index < len(sampleRates) {
		rate = sampleRates[index]
	}
	return index, rate
}

// ParseAudioSpecificConfig parses the common header of an
// AudioSpecificConfig record: object type (with the 31 escape), sampling
// frequency (with the 15 escape to an explicit 24-bit rate), channel
// configuration and the explicit or implicit SBR/PS extension signaling.
// The object-specific payload that follows is left to the caller, who
// can locate it through Config.ConfigBits.
func ParseAudioSpecificConfig(data []byte) (*Config, error) {
	r, err := bitio.NewReader(data, bitio.MSBFirst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c := &Config{SBR: -1, PS: -1, ExtObjectType: AOTNull}
	c.ObjectType = readObjectType(r)
	c.SamplingIndex, c.SampleRate = readSampleRate(r)
	c.ChannelConfig = int(r.Read(4))
	if c.ChannelConfig < len(channelCounts) {
		c.Channels = channelCounts[c.ChannelConfig]
	}

	if c.ObjectType == AOTSBR || (c.ObjectType == AOTPS &&
		// PS is coded as an SBR extension unless the bits that follow
		// already form an extension identifier.
		!(r.Peek(3)&0x03 != 0 && r.PeekLong(9)&0x3F == 0)) {
		if c.ObjectType == AOTPS {
			c.PS = 1
		}
		c.SBR = 1
		c.ExtObjectType = AOTSBR
		c.ExtSamplingIndex, c.ExtSampleRate = readSampleRate(r)
		c.ObjectType = readObjectType(r)
		if c.ObjectType == AOTERBSAC {
			r.Skip(4) // extensionChannelConfiguration
		}
	}

	if r.BitsRemaining() < 0 {
		return nil, fmt.Errorf("%w: truncated (%d bits)", ErrInvalidConfig, len(data)*8)
	}
	c.ConfigBits = r.BitsRead()

	// Probe for the 0x2b7 sync extension that signals SBR implicitly
	// after the object-specific payload.
	if c.ExtObjectType != AOTSBR {
		for r.BitsRemaining() > 15 {
			if r.Peek(11) != 0x2b7 {
				r.Skip1()
				continue
			}
			r.Skip(11)
			c.ExtObjectType = readObjectType(r)
			if c.ExtObjectType == AOTSBR {
				c.SBR = int(r.Read1())
				if c.SBR == 1 {
					c.ExtSamplingIndex, c.ExtSampleRate = readSampleRate(r)
				}
			}
			break
		}
	}

	return c, nil
}

// WriteADTSHeader emits the 7-byte ADTS fixed+variable header for a raw
// AAC frame of payloadLen bytes. Only the first four object types fit the
// 2-bit profile field, and the escape sampling index cannot be
// represented at all.
func WriteADTSHeader(dst []byte, c *Config, payloadLen int) error {
	if c.ObjectType < 1 || c.ObjectType > 4 {
		return fmt.Errorf("%w: MPEG-4 AOT %d", ErrNotInADTS, c.ObjectType)
	}
	if c.SamplingIndex == 0xF {
		return fmt.Errorf("%w: escape sample rate index", ErrNotInADTS)
	}

	full := ADTSHeaderSize + payloadLen
	if full > adtsMaxFrameBytes {
		return fmt.Errorf("%w: %d (max %d)", ErrFrameTooLarge, full, adtsMaxFrameBytes)
	}

	w := bitio.NewWriter(dst, bitio.MSBFirst)

	// adts_fixed_header
	w.Write(12, 0xfff)                      // syncword
	w.Write(1, 0)                           // ID
	w.Write(2, 0)                           // layer
	w.Write(1, 1)                           // protection_absent
	w.Write(2, uint32(c.ObjectType-1))      // profile_objecttype
	w.Write(4, uint32(c.SamplingIndex))     // sampling_frequency_index
	w.Write(1, 0)                           // private_bit
	w.Write(3, uint32(c.ChannelConfig))     // channel_configuration
	w.Write(1, 0)                           // original_copy
	w.Write(1, 0)                           // home

	// adts_variable_header
	w.Write(1, 0)           // copyright_identification_bit
	w.Write(1, 0)           // copyright_identification_start
	w.Write(13, uint32(full)) // aac_frame_length
	w.Write(11, 0x7ff)      // adts_buffer_fullness
	w.Write(2, 0)           // number_of_raw_data_blocks_in_frame

	w.Flush()
	return w.Err()
}

// WriteLATMMuxConfig writes the StreamMuxConfig element of an
// AudioMuxElement: the fixed mux layout fields with the
// AudioSpecificConfig copied through bit by bit. asc must be the record c
// was parsed from.
func WriteLATMMuxConfig(w *bitio.Writer, c *Config, asc []byte) error {
	w.Write(1, 0) // audioMuxVersion
	w.Write(1, 1) // allStreamsSameTimeFraming
	w.Write(6, 0) // numSubFrames
	w.Write(4, 0) // numProgram
	w.Write(3, 0) // numLayer

	r, err := bitio.NewReader(asc, bitio.MSBFirst)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ObjectType == AOTALS {
		// ALS carries its own config verbatim from the byte-aligned
		// start of the object-specific part to the end of the record.
		start := c.ConfigBits &^ 7
		r.SkipLong(start)
		bitio.CopyBits(w, r, len(asc)*8-start)
	} else {
		// The common header plus the three GASpecificConfig flag bits.
		bitio.CopyBits(w, r, c.ConfigBits+3)
	}

	w.Write(3, 0)    // frameLengthType
	w.Write(8, 0xff) // latmBufferFullness
	w.Write(1, 0)    // otherDataPresent
	w.Write(1, 0)    // crcCheckPresent
	return w.Err()
}
