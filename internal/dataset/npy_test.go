package dataset_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/facevae-ml/facevae/internal/dataset"
)

// buildNPY assembles a version-1 .npy stream with the given header dict
// and payload, padding the header to 16-byte alignment the way NumPy
// does.
func buildNPY(descr string, shape []int, payload []byte) []byte {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }",
		descr, strings.Join(dims, ", "))

	headerLen := len(dict) + 1 // trailing newline
	total := 10 + headerLen
	if pad := total % 16; pad != 0 {
		headerLen += 16 - pad
	}
	header := make([]byte, headerLen)
	copy(header, dict)
	for i := len(dict); i < headerLen-1; i++ {
		header[i] = ' '
	}
	header[headerLen-1] = '\n'

	var buf bytes.Buffer
	buf.Write([]byte{0x93, 'N', 'U', 'M', 'P', 'Y', 1, 0})
	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, uint16(headerLen))
	buf.Write(lenBytes)
	buf.Write(header)
	buf.Write(payload)
	return buf.Bytes()
}

func TestReadNPYUint8(t *testing.T) {
	// 1 image, 2x2, 3 channels, NHWC on disk.
	payload := []byte{
		// (y=0, x=0) RGB, (y=0, x=1) RGB
		255, 0, 0, 0, 255, 0,
		// (y=1, x=0) RGB, (y=1, x=1) RGB
		0, 0, 255, 255, 255, 255,
	}
	ds, err := dataset.ReadNPY(bytes.NewReader(buildNPY("|u1", []int{1, 2, 2, 3}, payload)))
	if err != nil {
		t.Fatalf("ReadNPY: %v", err)
	}

	if ds.NumSamples() != 1 {
		t.Fatalf("NumSamples = %d, want 1", ds.NumSamples())
	}
	c, h, w := ds.ImageShape()
	if c != 3 || h != 2 || w != 2 {
		t.Fatalf("ImageShape = (%d, %d, %d), want (3, 2, 2)", c, h, w)
	}

	// NCHW in memory: R plane, then G, then B, each scaled by 1/255.
	want := []float32{
		1, 0, 0, 1, // R
		0, 1, 0, 1, // G
		0, 0, 1, 1, // B
	}
	got := ds.Image(0)
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("pixel %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReadNPYFloat32(t *testing.T) {
	vals := []float32{0.5, 0.25, 0.75, 1, 0, 0.125, 0.5, 0.5, 0.5, 1, 1, 1}
	payload := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(v))
	}
	ds, err := dataset.ReadNPY(bytes.NewReader(buildNPY("<f4", []int{1, 2, 2, 3}, payload)))
	if err != nil {
		t.Fatalf("ReadNPY: %v", err)
	}
	// First pixel's red channel comes through untouched.
	if got := ds.Image(0)[0]; got != 0.5 {
		t.Errorf("first red value = %v, want 0.5", got)
	}
}

func TestReadNPYErrors(t *testing.T) {
	valid := func() []byte {
		return buildNPY("|u1", []int{1, 2, 2, 3}, make([]byte, 12))
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", append([]byte("NOTNPY"), valid()[6:]...)},
		{"wrong rank", buildNPY("|u1", []int{2, 2, 3}, make([]byte, 12))},
		{"wrong channels", buildNPY("|u1", []int{1, 2, 2, 4}, make([]byte, 16))},
		{"unsupported dtype", buildNPY("<i4", []int{1, 2, 2, 3}, make([]byte, 48))},
		{"truncated payload", buildNPY("|u1", []int{1, 2, 2, 3}, make([]byte, 5))},
		{"fortran order", bytes.Replace(valid(), []byte("False"), []byte("True "), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dataset.ReadNPY(bytes.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
