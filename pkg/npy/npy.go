// Package npy reads and writes NumPy .npy files (format version 1.0).
//
// Only C-ordered little-endian float32 and int64 arrays are supported, the
// two dtypes dataset artifacts use.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DescrFloat32 is the dtype descriptor for little-endian float32.
	DescrFloat32 = "<f4"
	// DescrInt64 is the dtype descriptor for little-endian int64.
	DescrInt64 = "<i8"
)

var magic = []byte("\x93NUMPY")

// ErrFormat is returned for streams that are not valid version 1.0 .npy data.
var ErrFormat = errors.New("npy: invalid format")

// Header describes an array.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

// Len returns the number of elements described by the shape.
func (h Header) Len() int {
	n := 1
	for _, d := range h.Shape {
		n *= d
	}
	return n
}

func (h Header) encode() []byte {
	dims := make([]string, len(h.Shape))
	for i, d := range h.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(h.Shape) == 1 {
		shape += ","
	}
	order := "False"
	if h.FortranOrder {
		order = "True"
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%s), }", h.Descr, order, shape)

	// magic(6) + version(2) + length(2) + dict + padding + '\n' is a
	// multiple of 64.
	total := 10 + len(dict) + 1
	pad := (64 - total%64) % 64
	return []byte(dict + strings.Repeat(" ", pad) + "\n")
}

// WriteHeader writes the preamble and header dictionary.
func WriteHeader(w io.Writer, h Header) error {
	dict := h.encode()
	if len(dict) > 0xffff {
		return fmt.Errorf("npy: header too long (%d bytes)", len(dict))
	}
	var pre [10]byte
	copy(pre[:], magic)
	pre[6], pre[7] = 1, 0
	binary.LittleEndian.PutUint16(pre[8:], uint16(len(dict)))
	if _, err := w.Write(pre[:]); err != nil {
		return err
	}
	_, err := w.Write(dict)
	return err
}

// WriteFloat32Rows writes a float32 array of the given shape whose
// row-major data is the concatenation of rows, without materialising it.
func WriteFloat32Rows(w io.Writer, shape []int, rows [][]float32) error {
	h := Header{Descr: DescrFloat32, Shape: shape}
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	if h.Len() != n {
		return fmt.Errorf("npy: shape %v needs %d elements, got %d", shape, h.Len(), n)
	}
	bw := bufio.NewWriter(w)
	if err := WriteHeader(bw, h); err != nil {
		return err
	}
	for _, r := range rows {
		if err := binary.Write(bw, binary.LittleEndian, r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteInt64 writes data as a one-dimensional int64 array.
func WriteInt64(w io.Writer, data []int64) error {
	bw := bufio.NewWriter(w)
	if err := WriteHeader(bw, Header{Descr: DescrInt64, Shape: []int{len(data)}}); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, data); err != nil {
		return err
	}
	return bw.Flush()
}

var (
	descrRe = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	orderRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRe = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// ReadHeader parses the preamble and header dictionary, leaving r positioned
// at the start of the array data.
func ReadHeader(r io.Reader) (Header, error) {
	var pre [10]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if !bytes.Equal(pre[:6], magic) {
		return Header{}, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	if pre[6] != 1 {
		return Header{}, fmt.Errorf("%w: unsupported version %d.%d", ErrFormat, pre[6], pre[7])
	}
	dict := make([]byte, binary.LittleEndian.Uint16(pre[8:]))
	if _, err := io.ReadFull(r, dict); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	var h Header
	m := descrRe.FindSubmatch(dict)
	if m == nil {
		return Header{}, fmt.Errorf("%w: missing descr", ErrFormat)
	}
	h.Descr = string(m[1])
	if m = orderRe.FindSubmatch(dict); m != nil {
		h.FortranOrder = string(m[1]) == "True"
	}
	m = shapeRe.FindSubmatch(dict)
	if m == nil {
		return Header{}, fmt.Errorf("%w: missing shape", ErrFormat)
	}
	for _, f := range strings.Split(string(m[1]), ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		d, err := strconv.Atoi(f)
		if err != nil || d < 0 {
			return Header{}, fmt.Errorf("%w: bad shape %q", ErrFormat, m[1])
		}
		h.Shape = append(h.Shape, d)
	}
	return h, nil
}

// ReadFloat32 reads a float32 array.
func ReadFloat32(r io.Reader) (Header, []float32, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return h, nil, err
	}
	if h.Descr != DescrFloat32 {
		return h, nil, fmt.Errorf("npy: dtype %s, want %s", h.Descr, DescrFloat32)
	}
	data := make([]float32, h.Len())
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, data); err != nil {
		return h, nil, fmt.Errorf("npy: read data: %w", err)
	}
	return h, data, nil
}

// ReadInt64 reads an int64 array.
func ReadInt64(r io.Reader) (Header, []int64, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return h, nil, err
	}
	if h.Descr != DescrInt64 {
		return h, nil, fmt.Errorf("npy: dtype %s, want %s", h.Descr, DescrInt64)
	}
	data := make([]int64, h.Len())
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, data); err != nil {
		return h, nil, fmt.Errorf("npy: read data: %w", err)
	}
	return h, data, nil
}
