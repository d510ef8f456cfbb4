package image

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"
)

// Load decodes a single-channel image. Colour images are reduced to their
// luminance. The pixel size is taken from TIFF resolution tags when present,
// otherwise it is 1.
func Load(path string) (*Field, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	f := FromImage(img)
	f.PixelSize = pixelSizeOrDefault(path)
	return f, nil
}

// LoadChannels decodes an image into one field per channel. Gray images
// give one field, RGB images give red, green and blue fields.
func LoadChannels(path string) ([]*Field, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	ps := pixelSizeOrDefault(path)

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		f := FromImage(img)
		f.PixelSize = ps
		return []*Field{f}, nil
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	chans := []*Field{NewField(w, h, ps), NewField(w, h, ps), NewField(w, h, ps)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*w + x
			chans[0].Pix[i] = float64(r)
			chans[1].Pix[i] = float64(g)
			chans[2].Pix[i] = float64(bl)
		}
	}
	return chans, nil
}

// FromImage converts an image to a field. Gray and Gray16 keep their native
// range; other models use 16-bit luminance.
func FromImage(img image.Image) *Field {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f := NewField(w, h, 1)
	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				f.Pix[y*w+x] = float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				f.Pix[y*w+x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				f.Pix[y*w+x] = float64(g.Y)
			}
		}
	}
	return f
}

func decode(path string) (image.Image, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func pixelSizeOrDefault(path string) float64 {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".tiff" && ext != ".tif" {
		return 1
	}
	ps, err := extractTIFFPixelSize(path)
	if err != nil || ps <= 0 {
		return 1
	}
	return ps
}

// extractTIFFPixelSize reads the resolution tags and returns the pixel size
// in micrometres for inch and centimetre units, or 1/resolution when the
// unit is unspecified.
func extractTIFFPixelSize(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes float64
	var resUnit uint16 = 2

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 {
				xRes = readTIFFRational(file, int64(byteOrder.Uint32(entry[8:12])), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 {
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	if xRes == 0 {
		return 0, fmt.Errorf("no resolution tag found")
	}

	switch resUnit {
	case 2:
		return 25400 / xRes, nil
	case 3:
		return 10000 / xRes, nil
	default:
		return 1 / xRes, nil
	}
}

// readTIFFRational reads a RATIONAL value (two uint32s) from a TIFF file.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1)
	defer file.Seek(currentPos, 0)

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
