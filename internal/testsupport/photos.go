package testsupport

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// GPSTag describes the raw GPS IFD values written into a synthetic photo.
type GPSTag struct {
	Lat      [3]float64 // degrees, minutes, seconds
	LatRef   string
	Lon      [3]float64
	LonRef   string
	Alt      *float64 // magnitude; AltBelow sets GPSAltitudeRef=1
	AltBelow bool
}

// Photo describes a synthetic JPEG. Nil GPS produces EXIF without location;
// zero Taken omits the DateTime tag. Taken is written as its wall clock.
// Zoned also stores DateTimeOriginal and OffsetTimeOriginal (from Taken's
// zone) in an Exif sub-IFD.
type Photo struct {
	Taken time.Time
	Zoned bool
	GPS   *GPSTag
}

// DecimalGPS builds a GPSTag from signed decimal degrees.
func DecimalGPS(lat, lon float64) *GPSTag {
	tag := &GPSTag{LatRef: "N", LonRef: "E"}
	if lat < 0 {
		tag.LatRef = "S"
	}
	if lon < 0 {
		tag.LonRef = "W"
	}
	tag.Lat = toDMS(lat)
	tag.Lon = toDMS(lon)
	return tag
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func toDMS(v float64) [3]float64 {
	v = math.Abs(v)
	deg := math.Floor(v)
	minFull := (v - deg) * 60
	minutes := math.Floor(minFull)
	sec := (minFull - minutes) * 60
	return [3]float64{deg, minutes, sec}
}

// WritePhoto writes a minimal JPEG carrying an APP1 Exif segment to path.
func WritePhoto(t testing.TB, path string, photo Photo) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, EncodeJPEG(photo), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFile writes arbitrary bytes to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// EncodeJPEG returns the JPEG bytes for photo.
func EncodeJPEG(photo Photo) []byte {
	payload := append([]byte("Exif\x00\x00"), EncodeTIFF(photo)...)

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// BareJPEG returns a JFIF JPEG without any EXIF segment, like a screenshot
// or an export with metadata stripped.
func BareJPEG() []byte {
	return []byte{
		0xFF, 0xD8,
		0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
		0xFF, 0xD9,
	}
}

const (
	typeByte     = 1
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

// EncodeTIFF returns a little-endian TIFF structure with IFD0 and, when
// requested, Exif and GPS sub-IFDs.
func EncodeTIFF(photo Photo) []byte {
	const exifLayout = "2006:01:02 15:04:05"

	var ifd0 []ifdEntry
	if !photo.Taken.IsZero() {
		ifd0 = append(ifd0, asciiEntry(0x0132, photo.Taken.Format(exifLayout)))
	}

	var subs [][]ifdEntry
	if photo.Zoned && !photo.Taken.IsZero() {
		subs = append(subs, []ifdEntry{
			asciiEntry(0x9003, photo.Taken.Format(exifLayout)),
			asciiEntry(0x9011, photo.Taken.Format("-07:00")),
		})
		// placeholder; offsets are patched below once sizes are known
		ifd0 = append(ifd0, ifdEntry{tag: 0x8769, typ: typeLong, count: 1, data: make([]byte, 4)})
	}
	if photo.GPS != nil {
		g := photo.GPS
		gps := []ifdEntry{
			asciiEntry(0x0001, g.LatRef),
			rationalEntry(0x0002, g.Lat[:]...),
			asciiEntry(0x0003, g.LonRef),
			rationalEntry(0x0004, g.Lon[:]...),
		}
		if g.Alt != nil {
			ref := byte(0)
			if g.AltBelow {
				ref = 1
			}
			gps = append(gps,
				ifdEntry{tag: 0x0005, typ: typeByte, count: 1, data: []byte{ref}},
				rationalEntry(0x0006, *g.Alt),
			)
		}
		subs = append(subs, gps)
		ifd0 = append(ifd0, ifdEntry{tag: 0x8825, typ: typeLong, count: 1, data: make([]byte, 4)})
	}

	const ifd0Offset = 8
	offsets := make([]uint32, len(subs))
	next := uint32(ifd0Offset + ifdSize(ifd0))
	for i, sub := range subs {
		offsets[i] = next
		next += uint32(ifdSize(sub))
	}
	// pointer entries are the last len(subs) entries of IFD0, in sub-IFD order
	for i := range subs {
		binary.LittleEndian.PutUint32(ifd0[len(ifd0)-len(subs)+i].data, offsets[i])
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(ifd0Offset))
	buf.Write(encodeIFD(ifd0, ifd0Offset))
	for i, sub := range subs {
		buf.Write(encodeIFD(sub, offsets[i]))
	}
	return buf.Bytes()
}

func asciiEntry(tag uint16, s string) ifdEntry {
	data := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

func rationalEntry(tag uint16, vals ...float64) ifdEntry {
	const den = 10000
	data := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		data = binary.LittleEndian.AppendUint32(data, uint32(math.Round(v*den)))
		data = binary.LittleEndian.AppendUint32(data, den)
	}
	return ifdEntry{tag: tag, typ: typeRational, count: uint32(len(vals)), data: data}
}

// ifdSize is the size of the directory plus its out-of-line values.
func ifdSize(entries []ifdEntry) int {
	size := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			size += padded(len(e.data))
		}
	}
	return size
}

func padded(n int) int {
	return n + n%2
}

func encodeIFD(entries []ifdEntry, start uint32) []byte {
	var dir, extra bytes.Buffer
	dataOffset := start + uint32(2+12*len(entries)+4)

	_ = binary.Write(&dir, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&dir, binary.LittleEndian, e.tag)
		_ = binary.Write(&dir, binary.LittleEndian, e.typ)
		_ = binary.Write(&dir, binary.LittleEndian, e.count)
		if len(e.data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.data)
			dir.Write(inline)
			continue
		}
		_ = binary.Write(&dir, binary.LittleEndian, dataOffset+uint32(extra.Len()))
		extra.Write(e.data)
		if len(e.data)%2 == 1 {
			extra.WriteByte(0)
		}
	}
	_ = binary.Write(&dir, binary.LittleEndian, uint32(0))
	return append(dir.Bytes(), extra.Bytes()...)
}
