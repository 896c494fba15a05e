package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// npy magic: \x93NUMPY followed by major/minor version bytes.
var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

type npyHeader struct {
	descr        string
	fortranOrder bool
	shape        []int
}

// LoadNPY reads a NumPy .npy array of images, shape [N, H, W, C] with
// C = 3, and returns a Dataset holding the pixels as NCHW float32 in
// [0, 1]. uint8 arrays are scaled by 1/255; float arrays are taken
// as already normalized.
func LoadNPY(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadNPY(f)
}

// ReadNPY parses a .npy stream. See LoadNPY for the accepted layout.
func ReadNPY(r io.Reader) (*Dataset, error) {
	hdr, err := readNPYHeader(r)
	if err != nil {
		return nil, err
	}
	if hdr.fortranOrder {
		return nil, fmt.Errorf("dataset: fortran-order arrays are not supported")
	}
	if len(hdr.shape) != 4 {
		return nil, fmt.Errorf("dataset: expected [N, H, W, C] images, got shape %v", hdr.shape)
	}
	n, h, w, c := hdr.shape[0], hdr.shape[1], hdr.shape[2], hdr.shape[3]
	if c != 3 {
		return nil, fmt.Errorf("dataset: expected 3 channels, got %d", c)
	}

	count := n * h * w * c
	nhwc := make([]float32, count)

	switch hdr.descr {
	case "|u1", "<u1", "u1":
		buf := make([]byte, count)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("dataset: truncated uint8 payload: %w", err)
		}
		for i, v := range buf {
			nhwc[i] = float32(v) / 255
		}
	case "<f4":
		buf := make([]byte, count*4)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("dataset: truncated float32 payload: %w", err)
		}
		for i := 0; i < count; i++ {
			nhwc[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
	case "<f8":
		buf := make([]byte, count*8)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("dataset: truncated float64 payload: %w", err)
		}
		for i := 0; i < count; i++ {
			nhwc[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:])))
		}
	default:
		return nil, fmt.Errorf("dataset: unsupported dtype %q (want |u1, <f4 or <f8)", hdr.descr)
	}

	// NHWC on disk, NCHW in memory: conv layers index channels first.
	nchw := make([]float32, count)
	for img := 0; img < n; img++ {
		src := nhwc[img*h*w*c:]
		dst := nchw[img*c*h*w:]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for ch := 0; ch < c; ch++ {
					dst[(ch*h+y)*w+x] = src[(y*w+x)*c+ch]
				}
			}
		}
	}

	return &Dataset{data: nchw, n: n, c: c, h: h, w: w}, nil
}

func readNPYHeader(r io.Reader) (*npyHeader, error) {
	preamble := make([]byte, 8)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, fmt.Errorf("dataset: read npy preamble: %w", err)
	}
	for i, b := range npyMagic {
		if preamble[i] != b {
			return nil, fmt.Errorf("dataset: not a .npy file (bad magic)")
		}
	}
	major := preamble[6]

	var headerLen int
	switch major {
	case 1:
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, fmt.Errorf("dataset: read header length: %w", err)
		}
		headerLen = int(l)
	case 2, 3:
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, fmt.Errorf("dataset: read header length: %w", err)
		}
		headerLen = int(l)
	default:
		return nil, fmt.Errorf("dataset: unsupported .npy version %d", major)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	return parseNPYDict(string(raw))
}

// parseNPYDict extracts descr, fortran_order and shape from the header's
// Python dict literal, e.g.
//
//	{'descr': '|u1', 'fortran_order': False, 'shape': (15000, 60, 60, 3), }
func parseNPYDict(s string) (*npyHeader, error) {
	hdr := &npyHeader{}

	descr, err := dictString(s, "descr")
	if err != nil {
		return nil, err
	}
	hdr.descr = descr

	switch {
	case strings.Contains(s, "'fortran_order': True"):
		hdr.fortranOrder = true
	case strings.Contains(s, "'fortran_order': False"):
		hdr.fortranOrder = false
	default:
		return nil, fmt.Errorf("dataset: npy header missing fortran_order")
	}

	open := strings.Index(s, "'shape':")
	if open < 0 {
		return nil, fmt.Errorf("dataset: npy header missing shape")
	}
	lp := strings.Index(s[open:], "(")
	rp := strings.Index(s[open:], ")")
	if lp < 0 || rp < 0 || rp < lp {
		return nil, fmt.Errorf("dataset: malformed shape in npy header")
	}
	for _, part := range strings.Split(s[open+lp+1:open+rp], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("dataset: bad shape dimension %q: %w", part, err)
		}
		hdr.shape = append(hdr.shape, dim)
	}
	return hdr, nil
}

func dictString(s, key string) (string, error) {
	idx := strings.Index(s, "'"+key+"':")
	if idx < 0 {
		return "", fmt.Errorf("dataset: npy header missing %s", key)
	}
	rest := s[idx+len(key)+3:]
	first := strings.Index(rest, "'")
	if first < 0 {
		return "", fmt.Errorf("dataset: malformed %s in npy header", key)
	}
	second := strings.Index(rest[first+1:], "'")
	if second < 0 {
		return "", fmt.Errorf("dataset: malformed %s in npy header", key)
	}
	return rest[first+1 : first+1+second], nil
}
