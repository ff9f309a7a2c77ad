// Package jpegquality estimates the compression quality factor of a JPEG
// stream from its quantization tables, without decoding image data.
package jpegquality

import (
	"bytes"
	"errors"
	"io"
)

var (
	ErrInvalidJPEG  = errors.New("invalid JPEG header")
	ErrWrongTable   = errors.New("wrong size for quantization table")
	ErrShortSegment = errors.New("short segment length")
	ErrShortDQT     = errors.New("section DQT is too short")
	ErrNoDQT        = errors.New("quantization table not found")
)

const (
	markerSOI = 0xffd8
	markerEOI = 0xffd9
	markerSOS = 0xffda
	markerDQT = 0xffdb
)

// Sums of the reference quantization tables from ITU-T T.81 Annex K, the
// unscaled tables libjpeg style encoders multiply by the quality scaling
// factor. The measured-to-reference sum ratio recovers that factor.
const (
	stdLumaSum   = 3688
	stdChromaSum = 5505
)

type jpegReader struct {
	rs io.ReadSeeker
	q  int
}

// New reads the stream from the start and estimates its quality factor.
// The reader position is not preserved.
func New(rs io.ReadSeeker) (*jpegReader, error) {
	jr := &jpegReader{rs: rs}
	if _, err := jr.rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var sign [2]byte
	if _, err := io.ReadFull(jr.rs, sign[:]); err != nil {
		return nil, err
	}
	if int(sign[0])<<8|int(sign[1]) != markerSOI {
		return nil, ErrInvalidJPEG
	}
	if err := jr.readQuality(); err != nil {
		return nil, err
	}
	return jr, nil
}

// NewWithBytes estimates the quality factor of an in-memory JPEG.
func NewWithBytes(buf []byte) (*jpegReader, error) {
	return New(bytes.NewReader(buf))
}

// Quality returns the estimated quality factor, 1..100.
func (jr *jpegReader) Quality() int {
	return jr.q
}

// readMarker scans forward to the next marker and returns it as 0xffcc,
// zero on read failure. Fill bytes are skipped.
func (jr *jpegReader) readMarker() int {
	var mark [2]byte
	for {
		if _, err := io.ReadFull(jr.rs, mark[:]); err != nil {
			return 0
		}
		if mark[0] == 0xff && mark[1] != 0xff && mark[1] != 0x00 {
			return int(mark[0])<<8 | int(mark[1])
		}
		if _, err := jr.rs.Seek(-1, io.SeekCurrent); err != nil {
			return 0
		}
	}
}

func (jr *jpegReader) readUint16() (int, error) {
	var buf [2]byte
	if _, err := io.ReadFull(jr.rs, buf[:]); err != nil {
		return 0, err
	}
	return int(buf[0])<<8 | int(buf[1]), nil
}

// readQuality walks the segments up to SOS looking for quantization tables
// and derives the quality factor, preferring the luminance table.
func (jr *jpegReader) readQuality() error {
	fallback := 0
	for {
		marker := jr.readMarker()
		switch marker {
		case 0:
			return ErrInvalidJPEG
		case markerEOI, markerSOS:
			if fallback > 0 {
				jr.q = fallback
				return nil
			}
			return ErrNoDQT
		}

		length, err := jr.readUint16()
		if err != nil {
			return err
		}
		if length < 2 {
			return ErrShortSegment
		}
		payload := length - 2

		if marker != markerDQT {
			if _, err := jr.rs.Seek(int64(payload), io.SeekCurrent); err != nil {
				return err
			}
			continue
		}

		if payload < 65 {
			return ErrShortDQT
		}
		data := make([]byte, payload)
		if _, err := io.ReadFull(jr.rs, data); err != nil {
			return err
		}

		for offset := 0; offset < len(data); {
			precision := int(data[offset]) >> 4
			index := int(data[offset]) & 0x0f
			offset++

			size := 64
			if precision != 0 {
				size = 128
			}
			if offset+size > len(data) || index > 3 {
				return ErrWrongTable
			}

			sum, allOnes := tableSum(data[offset:offset+size], precision)
			offset += size

			switch index {
			case 0:
				jr.q = estimateQuality(sum, stdLumaSum, allOnes)
				return nil
			case 1:
				if fallback == 0 {
					fallback = estimateQuality(sum, stdChromaSum, allOnes)
				}
			}
		}
	}
}

func tableSum(data []byte, precision int) (sum int, allOnes bool) {
	allOnes = true
	if precision == 0 {
		for _, v := range data {
			sum += int(v)
			if v != 1 {
				allOnes = false
			}
		}
		return sum, allOnes
	}
	for i := 0; i < len(data); i += 2 {
		v := int(data[i])<<8 | int(data[i+1])
		sum += v
		if v != 1 {
			allOnes = false
		}
	}
	return sum, allOnes
}

// estimateQuality inverts the libjpeg quality scaling: the measured table is
// the reference table scaled by S where S = 5000/q below 50 and 200-2q above.
func estimateQuality(sum, refSum int, allOnes bool) int {
	if allOnes {
		return 100
	}
	scale := float64(sum) * 100 / float64(refSum)
	var qual float64
	if scale <= 100 {
		qual = (200 - scale) / 2
	} else {
		qual = 5000 / scale
	}
	q := int(qual + 0.5)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
