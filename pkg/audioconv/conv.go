// Package audioconv decodes recorded answers into the mono float32 samples
// the transcriber expects.
package audioconv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const opusRate = 48000

type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
)

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	SampleRate  int           // output rate, 16000 when zero
	MaxDuration time.Duration // 0 = whole file
}

func (o Options) rate() int {
	if o.SampleRate <= 0 {
		return 16000
	}
	return o.SampleRate
}

// clip is raw interleaved audio straight out of a decoder.
type clip struct {
	samples  []float32
	channels int
	rate     int
}

// DecodeFile reads the audio file at path and returns mono samples at
// opt.SampleRate.
func DecodeFile(ctx context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, err := detect(f, path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var c clip
	switch format {
	case FormatWAV:
		c, err = decodeWAV(f)
	case FormatMP3:
		c, err = decodeMP3(f)
	case FormatOgg:
		c, err = decodeOgg(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return finish(c, opt), nil
}

// detect picks the decoder from the file extension, falling back to the
// container magic.
func detect(f io.ReadSeeker, path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga", ".opus":
		return FormatOgg, nil
	}

	magic, _ := bufio.NewReader(f).Peek(4)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown, err
	}
	switch {
	case string(magic) == "RIFF":
		return FormatWAV, nil
	case string(magic) == "OggS":
		return FormatOgg, nil
	case len(magic) >= 3 && string(magic[:3]) == "ID3":
		return FormatMP3, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

func decodeWAV(r io.ReadSeeker) (clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return clip{}, errors.New("invalid wav header")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return clip{}, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return clip{}, errors.New("no samples")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	scale := 1.0 / float64(int64(1)<<(depth-1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(math.Max(-1, math.Min(1, float64(v)*scale)))
	}

	c := clip{samples: samples, channels: 1, rate: int(dec.SampleRate)}
	if buf.Format != nil {
		c.channels = buf.Format.NumChannels
		c.rate = buf.Format.SampleRate
	}
	return c, nil
}

// decodeMP3 relies on go-mp3 always producing 16-bit little endian stereo.
func decodeMP3(r io.Reader) (clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return clip{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return clip{}, err
	}
	pcm := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(pcm)*2]), binary.LittleEndian, pcm); err != nil {
		return clip{}, err
	}
	return clip{samples: fromInt16(pcm), channels: 2, rate: dec.SampleRate()}, nil
}

// decodeOgg tries Vorbis first and Opus second.
func decodeOgg(r io.ReadSeeker) (clip, error) {
	c, vorbisErr := decodeVorbis(r)
	if vorbisErr == nil {
		return c, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return clip{}, err
	}
	c, opusErr := decodeOpus(r)
	if opusErr != nil {
		return clip{}, fmt.Errorf("neither vorbis (%v) nor opus (%w)", vorbisErr, opusErr)
	}
	return c, nil
}

func decodeVorbis(r io.Reader) (clip, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return clip{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return clip{}, errors.New("invalid vorbis stream")
	}
	return clip{samples: samples, channels: format.Channels, rate: format.SampleRate}, nil
}

func decodeOpus(r io.ReadSeeker) (clip, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return clip{}, err
	}
	defer dec.Destroy()

	channels := max(dec.ChannelCount(), 1)
	buf := make([]int16, opusRate/2*channels)

	var samples []float32
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			samples = append(samples, fromInt16(buf[:n*channels])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return clip{}, err
		}
	}
	return clip{samples: samples, channels: channels, rate: opusRate}, nil
}

func finish(c clip, opt Options) []float32 {
	out := Downmix(c.samples, c.channels)
	if c.rate > 0 {
		out = Resample(out, c.rate, opt.rate())
	}
	if opt.MaxDuration > 0 {
		limit := int(opt.MaxDuration.Seconds() * float64(opt.rate()))
		if len(out) > limit {
			out = out[:limit]
		}
	}
	return out
}

func fromInt16(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v) / 32768
	}
	return out
}

// Downmix averages interleaved channels into one.
func Downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float64
		for _, v := range in[i*channels : (i+1)*channels] {
			sum += float64(v)
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// Resample converts between rates with linear interpolation.
func Resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	last := len(in) - 1
	for i := range out {
		pos := float64(i) / ratio
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
