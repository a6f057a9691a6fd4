package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// Decode 把片段解码为单声道 PCM。
func Decode(c Clip) (PCM, error) {
	switch c.Format {
	case FormatMP3:
		return decodeMP3(c.Data)
	case FormatWAV:
		return decodeWAV(c.Data)
	}
	return PCM{}, &DecodeError{Format: c.Format, Err: fmt.Errorf("不支持的格式")}
}

func decodeMP3(data []byte) (PCM, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return PCM{}, &DecodeError{Format: FormatMP3, Err: err}
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return PCM{}, &DecodeError{Format: FormatMP3, Err: err}
	}
	if len(raw) < 4 {
		return PCM{}, &DecodeError{Format: FormatMP3, Err: errors.New("没有音频帧")}
	}
	return PCM{Samples: StereoS16LEToMono(raw), SampleRate: dec.SampleRate()}, nil
}

type wavHeader struct {
	channels   int
	sampleRate int
	bits       int
	dataOff    int
	dataLen    int
}

func (h wavHeader) frames() int {
	return h.dataLen / (h.channels * h.bits / 8)
}

var errNotWAV = errors.New("不是 RIFF/WAVE 数据")

// parseWAVHeader 遍历 RIFF 块，找到 fmt 和 data。只支持 16-bit 整数 PCM。
func parseWAVHeader(data []byte) (wavHeader, error) {
	var h wavHeader
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return h, errNotWAV
	}
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		body := pos + 8
		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return h, fmt.Errorf("fmt 块过短")
			}
			if tag := binary.LittleEndian.Uint16(data[body:]); tag != 1 {
				return h, fmt.Errorf("不支持的编码类型 %d", tag)
			}
			h.channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			h.sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			h.bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			if h.bits != 16 || h.channels < 1 || h.sampleRate <= 0 {
				return h, fmt.Errorf("不支持的格式: %d 声道 %d bit %d Hz", h.channels, h.bits, h.sampleRate)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return h, fmt.Errorf("data 块出现在 fmt 块之前")
			}
			h.dataOff = body
			h.dataLen = size
			// 流式写入的 WAV 可能把长度写成 0 或超出实际长度
			if h.dataLen == 0 || body+h.dataLen > len(data) {
				h.dataLen = len(data) - body
			}
			return h, nil
		}
		pos = body + size + size%2
	}
	return h, fmt.Errorf("缺少 data 块")
}

func decodeWAV(data []byte) (PCM, error) {
	h, err := parseWAVHeader(data)
	if err != nil {
		return PCM{}, &DecodeError{Format: FormatWAV, Err: err}
	}
	raw := data[h.dataOff : h.dataOff+h.dataLen]
	mono := S16LEToFloat32(raw)
	if h.channels > 1 {
		frames := len(mono) / h.channels
		down := make([]float32, frames)
		for i := 0; i < frames; i++ {
			var sum float32
			for c := 0; c < h.channels; c++ {
				sum += mono[i*h.channels+c]
			}
			down[i] = sum / float32(h.channels)
		}
		mono = down
	}
	return PCM{Samples: mono, SampleRate: h.sampleRate}, nil
}
