package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"golang.org/x/sys/cpu"

	"github.com/gen2brain/fmtconv"
)

// Decoder reads interleaved PCM from an input file in the encoding reported by SampleFormat.
type Decoder interface {
	// Read decodes as many whole frames as fit in dst and returns the number of frames read.
	Read(dst []byte) (frames int, err error)
	// Duration returns the total duration of the stream.
	Duration() (time.Duration, error)
	NumChans() int
	SampleRate() int
	SampleFormat() fmtconv.SampleFormat
}

// openDecoder picks a decoder by file extension.
func openDecoder(f *os.File) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(f.Name())) {
	case ".mp3":
		return newMp3Decoder(f)
	case ".ogg", ".oga":
		return newOggDecoder(f)
	case ".aif", ".aiff":
		return newAiffDecoder(f)
	default:
		return newWavDecoder(f)
	}
}

// pcmReader is implemented by the go-audio WAV and AIFF decoders.
type pcmReader interface {
	PCMBuffer(buf *audio.IntBuffer) (n int, err error)
	Duration() (time.Duration, error)
}

// intDecoder packs the integers of a go-audio decoder into native byte order samples.
type intDecoder struct {
	pcmReader
	format   fmtconv.SampleFormat
	channels int
	rate     int
	buf      *audio.IntBuffer
}

func newIntDecoder(r pcmReader, format fmtconv.SampleFormat, channels, rate int) *intDecoder {
	return &intDecoder{
		pcmReader: r,
		format:    format,
		channels:  channels,
		rate:      rate,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: rate},
		},
	}
}

func (d *intDecoder) Read(dst []byte) (int, error) {
	frameSize := int(fmtconv.FormatToBits(d.format)/8) * d.channels

	want := len(dst) / frameSize * d.channels
	if cap(d.buf.Data) < want {
		d.buf.Data = make([]int, want)
	}
	d.buf.Data = d.buf.Data[:want]

	n, err := d.PCMBuffer(d.buf)
	frames := n / d.channels
	packSamples(dst, d.format, d.buf.Data[:frames*d.channels])

	if frames > 0 && errors.Is(err, io.EOF) {
		err = nil
	}

	return frames, err
}

func (d *intDecoder) NumChans() int                      { return d.channels }
func (d *intDecoder) SampleRate() int                    { return d.rate }
func (d *intDecoder) SampleFormat() fmtconv.SampleFormat { return d.format }

func newWavDecoder(r io.ReadSeeker) (Decoder, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	if decoder.WavAudioFormat == 3 { // IEEE float
		return nil, errors.New("float WAV input is not supported")
	}

	var format fmtconv.SampleFormat
	switch decoder.BitDepth {
	case 8:
		format = fmtconv.FORMAT_U8
	case 16:
		format = fmtconv.FORMAT_S16
	case 24:
		format = fmtconv.FORMAT_S24
	case 32:
		format = fmtconv.FORMAT_S32
	default:
		return nil, fmt.Errorf("unsupported integer bit depth from WAV: %d", decoder.BitDepth)
	}

	return newIntDecoder(decoder, format, int(decoder.NumChans), int(decoder.SampleRate)), nil
}

func newAiffDecoder(r io.ReadSeeker) (Decoder, error) {
	decoder := aiff.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid AIFF file")
	}

	decoder.ReadInfo()

	format := decoder.Format()
	if format == nil {
		return nil, errors.New("unsupported AIFF layout")
	}

	var sampleFormat fmtconv.SampleFormat
	switch decoder.BitDepth {
	case 16:
		sampleFormat = fmtconv.FORMAT_S16
	case 24:
		sampleFormat = fmtconv.FORMAT_S24
	case 32:
		sampleFormat = fmtconv.FORMAT_S32
	default:
		return nil, fmt.Errorf("unsupported bit depth from AIFF: %d", decoder.BitDepth)
	}

	return newIntDecoder(decoder, sampleFormat, format.NumChannels, format.SampleRate), nil
}

// mp3Decoder passes the 16-bit little-endian stereo output of go-mp3 through unchanged.
// On big-endian hosts those bytes are byte-swapped samples.
type mp3Decoder struct {
	decoder *mp3.Decoder
	format  fmtconv.SampleFormat
	length  int64 // Total decoded size in bytes.
}

func newMp3Decoder(r io.Reader) (Decoder, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	format := fmtconv.FORMAT_S16
	if cpu.IsBigEndian {
		format = fmtconv.FORMAT_S16S
	}

	return &mp3Decoder{
		decoder: decoder,
		format:  format,
		length:  decoder.Length(),
	}, nil
}

func (m *mp3Decoder) Read(dst []byte) (int, error) {
	n, err := io.ReadFull(m.decoder, dst[:len(dst)/4*4])
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}

	frames := n / 4
	if frames > 0 && errors.Is(err, io.EOF) {
		err = nil
	}

	return frames, err
}

func (m *mp3Decoder) Duration() (time.Duration, error) {
	frames := m.length / 4
	seconds := float64(frames) / float64(m.decoder.SampleRate())

	return time.Duration(seconds * float64(time.Second)), nil
}

func (m *mp3Decoder) NumChans() int                      { return 2 }
func (m *mp3Decoder) SampleRate() int                    { return m.decoder.SampleRate() }
func (m *mp3Decoder) SampleFormat() fmtconv.SampleFormat { return m.format }

// oggDecoder reads interleaved float samples from a Vorbis stream.
type oggDecoder struct {
	reader *oggvorbis.Reader
	buf    []float32
}

func newOggDecoder(r io.Reader) (Decoder, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid Ogg Vorbis file: %w", err)
	}

	return &oggDecoder{reader: reader}, nil
}

func (o *oggDecoder) Read(dst []byte) (int, error) {
	channels := o.reader.Channels()

	want := len(dst) / (4 * channels) * channels
	if cap(o.buf) < want {
		o.buf = make([]float32, want)
	}
	o.buf = o.buf[:want]

	var (
		n   int
		err error
	)
	for n < want && err == nil {
		var read int
		read, err = o.reader.Read(o.buf[n:])
		if read == 0 {
			break
		}
		n += read
	}

	frames := n / channels
	copy(dst, fmtconv.Bytes(o.buf[:frames*channels]))

	if frames > 0 && errors.Is(err, io.EOF) {
		err = nil
	}

	return frames, err
}

func (o *oggDecoder) Duration() (time.Duration, error) {
	seconds := float64(o.reader.Length()) / float64(o.reader.SampleRate())

	return time.Duration(seconds * float64(time.Second)), nil
}

func (o *oggDecoder) NumChans() int                      { return o.reader.Channels() }
func (o *oggDecoder) SampleRate() int                    { return o.reader.SampleRate() }
func (o *oggDecoder) SampleFormat() fmtconv.SampleFormat { return fmtconv.FORMAT_F32 }
