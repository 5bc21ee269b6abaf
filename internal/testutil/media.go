package testutil

import (
	"bytes"
	"encoding/binary"
)

// EXIF tag and type codes used by EXIFJPEG.
const (
	exifTagDateTime = 0x0132
	exifTypeASCII   = 2
)

// HEICBytes returns size bytes starting with an ISO-BMFF "ftyp" box whose
// major brand is heic.
func HEICBytes(size int) []byte {
	box := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")
	return padTo(box, size)
}

// CR2Bytes returns size bytes starting with a Canon CR2 header (little-endian
// TIFF with the "CR" marker at offset 8).
func CR2Bytes(size int) []byte {
	header := []byte("II*\x00\x10\x00\x00\x00CR\x02\x00")
	return padTo(header, size)
}

// EXIFJPEG returns a minimal JPEG whose APP1 segment carries an IFD0 with a
// single DateTime tag. taken uses the EXIF layout "2006:01:02 15:04:05".
func EXIFJPEG(taken string) []byte {
	value := append([]byte(taken), 0)

	const ifdOffset = 8
	const entries = 1
	valueOffset := ifdOffset + 2 + entries*12 + 4

	var tiff bytes.Buffer
	le := binary.LittleEndian
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(ifdOffset))
	_ = binary.Write(&tiff, le, uint16(entries))
	_ = binary.Write(&tiff, le, uint16(exifTagDateTime))
	_ = binary.Write(&tiff, le, uint16(exifTypeASCII))
	_ = binary.Write(&tiff, le, uint32(len(value)))
	_ = binary.Write(&tiff, le, uint32(valueOffset))
	_ = binary.Write(&tiff, le, uint32(0)) // no next IFD
	tiff.Write(value)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write([]byte{0xFF, 0xD9})

	return out.Bytes()
}

func padTo(prefix []byte, size int) []byte {
	out := make([]byte, max(size, len(prefix)))
	copy(out, prefix)
	return out
}
