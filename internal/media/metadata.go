package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Outcome tags the result of reading geolocation from a single image.
type Outcome int

const (
	// OutcomeGeotagged means the image carries a usable latitude/longitude.
	OutcomeGeotagged Outcome = iota
	// OutcomeNoGPS means the metadata was read but holds no location.
	OutcomeNoGPS
	// OutcomeUnreadable means the file or its metadata could not be decoded.
	OutcomeUnreadable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGeotagged:
		return "geotagged"
	case OutcomeNoGPS:
		return "no_gps"
	case OutcomeUnreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Coordinate is a position in signed decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
}

// Record is what the extractor learned about one image file.
type Record struct {
	Path        string
	CaptureTime time.Time // zero when the image has no capture time
	Coord       *Coordinate
	Outcome     Outcome
	Err         error // reason for OutcomeUnreadable
}

// HasTime reports whether a capture time was found.
func (r Record) HasTime() bool {
	return !r.CaptureTime.IsZero()
}

// SupportedImage reports whether the path has an extension that can carry embedded metadata.
func SupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return imageExt[ext]
}

// ReadGeotag extracts capture time and GPS position from an image.
//
// A missing location is reported as OutcomeNoGPS, not as a failure. Files whose
// metadata cannot be decoded come back as OutcomeUnreadable with Err set, so a
// single damaged photo never aborts a run.
func ReadGeotag(path string) Record {
	rec := Record{Path: path}

	file, err := os.Open(path)
	if err != nil {
		return rec.unreadable(fmt.Errorf("open %s: %w", path, err))
	}
	defer file.Close()

	var (
		coord *Coordinate
		ts    time.Time
	)
	x, exifErr := decodeGoexifSafe(file, path)
	if exifErr == nil {
		coord, err = goexifCoordinate(x)
		if err != nil {
			return rec.unreadable(fmt.Errorf("gps tags: %w", err))
		}
		ts = goexifCaptureTime(x)
	} else {
		// goexif only understands JPEG and TIFF; RAW and HEIF containers go through imagemeta.
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return rec.unreadable(fmt.Errorf("rewind %s: %w", path, err))
		}
		coord, ts, err = imagemetaCoordinate(file, path)
		if err != nil {
			if noMetadata(exifErr, err) {
				rec.Outcome = OutcomeNoGPS
				return rec
			}
			return rec.unreadable(fmt.Errorf("decode metadata: %v; fallback: %w", exifErr, err))
		}
	}

	rec.CaptureTime = ts
	if coord == nil {
		rec.Outcome = OutcomeNoGPS
		return rec
	}
	if err := ValidateCoordinate(coord.Latitude, coord.Longitude); err != nil {
		return rec.unreadable(err)
	}
	rec.Coord = coord
	rec.Outcome = OutcomeGeotagged
	return rec
}

func (r Record) unreadable(err error) Record {
	r.Outcome = OutcomeUnreadable
	r.Err = err
	r.Coord = nil
	return r
}

// goexifCoordinate converts the raw GPS IFD tags to decimal degrees.
// It returns nil without error when the image has no latitude/longitude tags.
func goexifCoordinate(x *exif.Exif) (*Coordinate, error) {
	latTag, latErr := x.Get(exif.GPSLatitude)
	lonTag, lonErr := x.Get(exif.GPSLongitude)
	if latErr != nil || lonErr != nil {
		return nil, nil
	}

	lat, err := tagDegrees(x, latTag, exif.GPSLatitudeRef)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := tagDegrees(x, lonTag, exif.GPSLongitudeRef)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}

	coord := &Coordinate{Latitude: lat, Longitude: lon}
	if altTag, err := x.Get(exif.GPSAltitude); err == nil {
		num, den, err := altTag.Rat2(0)
		if err == nil && den != 0 {
			below := false
			if refTag, err := x.Get(exif.GPSAltitudeRef); err == nil {
				below = altitudeRefBelow(refTag.Val)
			}
			alt := ApplyAltitudeRef(float64(num)/float64(den), below)
			coord.Altitude = &alt
		}
	}
	return coord, nil
}

func tagDegrees(x *exif.Exif, tag *tiff.Tag, refField exif.FieldName) (float64, error) {
	var parts [3]float64
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, fmt.Errorf("component %d: %w", i, err)
		}
		if den == 0 {
			if num == 0 {
				continue
			}
			return 0, fmt.Errorf("component %d has zero denominator", i)
		}
		parts[i] = float64(num) / float64(den)
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		if s, err := refTag.StringVal(); err == nil {
			ref = s
		}
	}
	return DMSToDecimal(parts[0], parts[1], parts[2], ref)
}

func altitudeRefBelow(val []byte) bool {
	return len(val) > 0 && val[0] == 1
}

// noMetadata reports whether both decoders failed only because the file
// carries no EXIF block at all.
func noMetadata(primary, fallback error) bool {
	if errors.Is(fallback, imagemeta.ErrNoExif) {
		return true
	}
	if !errors.Is(fallback, io.EOF) && !errors.Is(fallback, io.ErrUnexpectedEOF) {
		return false
	}
	// goexif reports a JPEG without APP1 as a bare io.EOF and a non-Exif APP1 by message only.
	return errors.Is(primary, io.EOF) || strings.Contains(primary.Error(), "failed to find exif intro marker")
}

// imagemetaCoordinate reads metadata from containers goexif cannot parse.
func imagemetaCoordinate(r io.ReadSeeker, path string) (*Coordinate, time.Time, error) {
	ex, err := decodeExifSafe(r, path)
	if err != nil {
		return nil, time.Time{}, err
	}

	var ts time.Time
	for _, t := range []time.Time{ex.DateTimeOriginal(), ex.CreateDate(), ex.ModifyDate()} {
		if !t.IsZero() {
			ts = t.UTC()
			break
		}
	}

	lat := float64(ex.GPS.Latitude())
	lon := float64(ex.GPS.Longitude())
	if lat == 0 && lon == 0 {
		return nil, ts, nil
	}
	coord := &Coordinate{Latitude: lat, Longitude: lon}
	if alt := float64(ex.GPS.Altitude()); alt != 0 {
		coord.Altitude = &alt
	}
	return coord, ts, nil
}

// decodeGoexifSafe protects against panics from the decoder on malformed files.
// Damaged optional sub-directories are tolerated as long as the main IFDs decoded.
func decodeGoexifSafe(r io.Reader, path string) (x *exif.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			x = nil
			err = fmt.Errorf("panic while decoding %s: %v", path, rec)
		}
	}()

	x, err = exif.Decode(r)
	if err != nil && x != nil && !exif.IsCriticalError(err) {
		// a failing built-in parser stops the chain before offsetParser runs
		_ = offsetParser{}.Parse(x)
		return x, nil
	}
	return x, err
}

// decodeExifSafe protects against panics from the decoder on malformed files.
func decodeExifSafe(r io.ReadSeeker, path string) (ex exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while decoding %s: %v", path, rec)
		}
	}()

	ex, err = imagemeta.Decode(r)
	return ex, err
}

var imageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".tif":  true,
	".tiff": true,
	".heic": true,
	".heif": true,
	".hif":  true,
	".avif": true,
	".3fr":  true, // Hasselblad
	".arw":  true, // Sony
	".cr2":  true, // Canon
	".cr3":  true, // Canon
	".dng":  true, // Adobe DNG
	".erf":  true, // Epson
	".kdc":  true, // Kodak
	".mrw":  true, // Minolta
	".nef":  true, // Nikon
	".nrw":  true, // Nikon
	".orf":  true, // Olympus
	".pef":  true, // Pentax
	".raf":  true, // Fujifilm
	".rw2":  true, // Panasonic
	".rwl":  true, // Leica
	".sr2":  true, // Sony
	".srw":  true, // Samsung
}
