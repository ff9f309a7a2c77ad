package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
)

type DpiType uint8

const (
	DpiNoUnits DpiType = iota
	DpiPxPerInch
	DpiPxPerSm
)

// jfifAPP0Len is the full APP0 segment size, marker included: 2 bytes
// marker, 2 length, 5 identifier, 2 version, 1 units, 4 density, 2 thumbnail.
const jfifAPP0Len = 18

// EnsureJFIFAPP0 inserts a JFIF APP0 marker segment right after SOI if the
// image does not already carry one. Viewers reading bundled trees expect the
// density header even on images produced by encoders that omit it. Returns
// the (possibly new) image bytes and whether an insertion happened.
func EnsureJFIFAPP0(jpegData []byte, dpit DpiType, xdensity, ydensity int16) ([]byte, bool, error) {
	if len(jpegData) < 4 {
		return nil, false, errors.New("jpeg too small")
	}
	if jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return nil, false, errors.New("not a jpeg")
	}
	if jpegData[2] == 0xFF && jpegData[3] == 0xE0 {
		// APP0 already follows SOI, leave the image alone.
		return jpegData, false, nil
	}

	var seg [jfifAPP0Len]byte
	copy(seg[:], []byte{0xFF, 0xE0})
	binary.BigEndian.PutUint16(seg[2:], jfifAPP0Len-2)
	copy(seg[4:], "JFIF\x00")
	seg[9], seg[10] = 1, 2 // version 1.02
	seg[11] = byte(dpit)
	binary.BigEndian.PutUint16(seg[12:], uint16(xdensity))
	binary.BigEndian.PutUint16(seg[14:], uint16(ydensity))
	// seg[16:18] stays zero, no thumbnail.

	out := make([]byte, 0, len(jpegData)+jfifAPP0Len)
	out = append(out, jpegData[:2]...)
	out = append(out, seg[:]...)
	out = append(out, jpegData[2:]...)
	return out, true, nil
}

// EncodeJPEGWithDPI encodes img at the given quality and stamps the JFIF
// density header the standard encoder leaves out.
func EncodeJPEGWithDPI(img image.Image, quality int, dpit DpiType, xdensity, ydensity int16) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	out, _, err := EnsureJFIFAPP0(buf.Bytes(), dpit, xdensity, ydensity)
	if err != nil {
		return nil, err
	}
	return out, nil
}
