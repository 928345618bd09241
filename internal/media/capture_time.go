package media

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// Offset tags of the Exif sub-IFD. goexif does not know them, so offsetParser
// loads them next to the standard fields.
const (
	offsetTime          exif.FieldName = "OffsetTime"
	offsetTimeOriginal  exif.FieldName = "OffsetTimeOriginal"
	offsetTimeDigitized exif.FieldName = "OffsetTimeDigitized"
)

var offsetFields = map[uint16]exif.FieldName{
	0x9010: offsetTime,
	0x9011: offsetTimeOriginal,
	0x9012: offsetTimeDigitized,
}

func init() {
	exif.RegisterParsers(offsetParser{})
}

type offsetParser struct{}

// Parse never fails: a damaged Exif sub-IFD only costs the offsets.
func (offsetParser) Parse(x *exif.Exif) error {
	if x.Tiff == nil {
		return nil
	}
	ptr, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return nil
	}
	offset, err := ptr.Int64(0)
	if err != nil {
		return nil
	}
	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil
	}
	x.LoadTags(dir, offsetFields, false)
	return nil
}

// goexifCaptureTime returns the capture time in UTC, or zero when absent.
//
// It follows the rule of the imagemeta decoder so both paths agree: the EXIF
// wall clock is UTC unless the matching OffsetTime* tag names a zone. The
// host's time zone never plays a part.
func goexifCaptureTime(x *exif.Exif) time.Time {
	candidates := []struct {
		value, offset exif.FieldName
	}{
		{exif.DateTimeOriginal, offsetTimeOriginal},
		{exif.DateTimeDigitized, offsetTimeDigitized},
		{exif.DateTime, offsetTime},
	}
	for _, c := range candidates {
		value, ok := stringTag(x, c.value)
		if !ok {
			continue
		}
		offset, _ := stringTag(x, c.offset)
		if ts, err := ParseExifTime(value, offset); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func stringTag(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	return s, true
}

// ParseExifTime parses an EXIF "YYYY:MM:DD HH:MM:SS" value. offset is an
// OffsetTime* value such as "+09:00"; empty or malformed offsets mean UTC.
// The result is always in UTC.
func ParseExifTime(value, offset string) (time.Time, error) {
	value = strings.TrimSpace(strings.TrimRight(value, "\x00"))
	wall, err := time.ParseInLocation(exifTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse exif time %q: %w", value, err)
	}
	secs, ok := parseOffset(offset)
	if !ok {
		return wall, nil
	}
	return wall.Add(-time.Duration(secs) * time.Second), nil
}

func parseOffset(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if len(s) != 6 || s[3] != ':' {
		return 0, false
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, false
	}
	h, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(s[4:6])
	if err != nil || h > 14 || m > 59 {
		return 0, false
	}
	return sign * (h*3600 + m*60), true
}
