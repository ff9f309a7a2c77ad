package jpegquality

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// encodeAtQuality produces an in-memory JPEG. Pixel content is irrelevant,
// quantization tables depend only on the requested quality.
func encodeAtQuality(tb testing.TB, width, height, quality int) []byte {
	tb.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			v := uint8((x*y + x + y) % 256)
			img.Set(x, y, color.RGBA{v, uint8(255 - int(v)), uint8(x % 256), 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		tb.Fatalf("failed to encode JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestQualityDetection(t *testing.T) {
	tests := []struct {
		name     string
		encoded  int
		min, max int
	}{
		{"plausible range", 85, 1, 100},
		{"high stays high", 95, 85, 100},
		{"low stays low", 50, 1, 60},
		{"maximum", 100, 95, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qr, err := NewWithBytes(encodeAtQuality(t, 100, 100, tt.encoded))
			if err != nil {
				t.Fatalf("NewWithBytes failed: %v", err)
			}
			if got := qr.Quality(); got < tt.min || got > tt.max {
				t.Errorf("encoded at %d: detected %d, want within [%d, %d]", tt.encoded, got, tt.min, tt.max)
			}
		})
	}
}

func TestQualityIndependentOfSize(t *testing.T) {
	sizes := []image.Point{{50, 50}, {100, 100}, {200, 150}, {300, 200}}
	for _, size := range sizes {
		data := encodeAtQuality(t, size.X, size.Y, 85)
		qr, err := NewWithBytes(data)
		if err != nil {
			t.Fatalf("NewWithBytes failed for %v: %v", size, err)
		}
		if got := qr.Quality(); got < 1 || got > 100 {
			t.Errorf("size %v: quality %d out of range", size, got)
		}
	}
}

func TestNewFromReader(t *testing.T) {
	data := encodeAtQuality(t, 64, 64, 90)
	reader := bytes.NewReader(data)

	qr, err := New(reader)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	first := qr.Quality()

	// The reader is rewound internally, a second pass must agree.
	qr2, err := New(reader)
	if err != nil {
		t.Fatalf("second New failed: %v", err)
	}
	if second := qr2.Quality(); first != second {
		t.Errorf("repeated reads disagree: %d then %d", first, second)
	}
}

func TestRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a jpeg", []byte("not a jpeg image")},
		{"truncated after SOI", []byte{0xff, 0xd8, 0xff}},
		{"no quantization tables", []byte{0xff, 0xd8, 0xff, 0xd9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWithBytes(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}

	// Missing header reports the sentinel.
	if _, err := New(bytes.NewReader([]byte("this is not jpeg"))); err != ErrInvalidJPEG {
		t.Errorf("got %v, want ErrInvalidJPEG", err)
	}
}

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		err error
		msg string
	}{
		{ErrInvalidJPEG, "invalid JPEG header"},
		{ErrWrongTable, "wrong size for quantization table"},
		{ErrShortSegment, "short segment length"},
		{ErrShortDQT, "section DQT is too short"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.msg {
			t.Errorf("got %q, want %q", got, tt.msg)
		}
	}
}

func TestReadMarker(t *testing.T) {
	jr := &jpegReader{rs: bytes.NewReader(encodeAtQuality(t, 32, 32, 85))}

	if m := jr.readMarker(); m != 0xffd8 {
		t.Fatalf("first marker 0x%x, want SOI 0xffd8", m)
	}
	if m := jr.readMarker(); m == 0 {
		t.Fatal("expected a marker after SOI")
	}
}

func BenchmarkQualityDetection(b *testing.B) {
	data := encodeAtQuality(b, 200, 200, 85)

	b.ResetTimer()
	for b.Loop() {
		qr, err := NewWithBytes(data)
		if err != nil {
			b.Fatalf("NewWithBytes failed: %v", err)
		}
		_ = qr.Quality()
	}
}
