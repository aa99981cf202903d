package stainnorm

import(
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
)

// A Slide is one source image plus the identity and modification
// marker the factorization cache keys on. Slides loaded from disk use
// the filename and file mtime; in-memory slides (tests, library use)
// get whatever name the caller picks and a zero mod time.
type Slide struct {
	Image    image.Image
	Name     string
	ModTime  time.Time

	// Provenance scraped from EXIF when the file carries it; purely
	// informational.
	Acquired string
	Scanner  string
}

// NewSlide wraps an in-memory image as a slide.
func NewSlide(img image.Image, name string) *Slide {
	return &Slide{Image: img, Name: name}
}

// LoadSlide reads a slide image from disk, picking the decoder by
// file extension.
func LoadSlide(filename string) (*Slide, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("stat '%s': %v", filename, err)
	}

	s := &Slide{Name: filename, ModTime: info.ModTime()}

	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	switch strings.ToLower(filepath.Ext(filename)) {

	case ".tif", ".tiff":
		if s.Image, err = tiff.Decode(reader); err != nil {
			return nil, fmt.Errorf("tiff loading '%s': %v", filename, err)
		}
		s.readProvenance(filename)

	case ".png":
		if s.Image, err = png.Decode(reader); err != nil {
			return nil, fmt.Errorf("png loading '%s': %v", filename, err)
		}

	case ".jpg", ".jpeg":
		if s.Image, err = jpeg.Decode(reader); err != nil {
			return nil, fmt.Errorf("jpeg loading '%s': %v", filename, err)
		}

	default:
		return nil, fmt.Errorf("don't know how to load '%s' as a slide", filename)
	}

	return s, nil
}

// readProvenance tries to pull acquisition metadata out of the file's
// EXIF block. Plenty of scanner exports don't have one, so every
// failure here is shrugged off.
func (s *Slide)readProvenance(filename string) {
	reader, err := os.Open(filename)
	if err != nil {
		return
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return
	}

	if tag, err := ex.Get(exif.DateTime); err == nil {
		if val, err := tag.StringVal(); err == nil {
			s.Acquired = val
		}
	}
	if tag, err := ex.Get(exif.Model); err == nil {
		if val, err := tag.StringVal(); err == nil {
			s.Scanner = val
		}
	}

	if s.Acquired != "" || s.Scanner != "" {
		log.Printf("Slide %s: acquired %q on %q", filepath.Base(filename), s.Acquired, s.Scanner)
	}
}

func (s *Slide)String() string {
	b := s.Image.Bounds()
	return fmt.Sprintf("Slide[%s %dx%d]", s.Name, b.Dx(), b.Dy())
}
