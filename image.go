package menufixture

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/corona10/goimagehash"
	"github.com/k1LoW/errors"
)

type MIMEType string

const (
	MIMETypeImagePNG  MIMEType = "image/png"
	MIMETypeImageJPEG MIMEType = "image/jpeg"
)

// similarityThreshold is the maximum perceptual hash distance of equivalent images.
const similarityThreshold = 5

// Fixture is a decoded fixture file.
type Fixture struct {
	i        image.Image
	b        []byte
	path     string
	mimeType MIMEType
	checksum uint32
	pHash    *goimagehash.ImageHash
}

// Inspect reads and decodes the fixture at p.
func Inspect(p string) (_ *Fixture, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file %s: %w", p, err)
	}
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", p, err)
	}
	var mt MIMEType
	switch format {
	case "jpeg":
		mt = MIMETypeImageJPEG
	case "png":
		mt = MIMETypeImagePNG
	default:
		return nil, fmt.Errorf("unsupported image MIME type: %s", format)
	}
	return &Fixture{
		i:        img,
		b:        b,
		path:     p,
		mimeType: mt,
	}, nil
}

func (f *Fixture) MIMEType() MIMEType {
	return f.mimeType
}

func (f *Fixture) Width() int {
	return f.i.Bounds().Dx()
}

func (f *Fixture) Height() int {
	return f.i.Bounds().Dy()
}

// Size returns the file size in bytes.
func (f *Fixture) Size() int64 {
	return int64(len(f.b))
}

func (f *Fixture) Image() image.Image {
	return f.i
}

func (f *Fixture) Checksum() uint32 {
	if f.checksum == 0 {
		f.checksum = crc32.ChecksumIEEE(f.b)
	}
	return f.checksum
}

func (f *Fixture) PHash() (_ *goimagehash.ImageHash, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if f.pHash == nil {
		pHash, err := goimagehash.PerceptionHash(f.i)
		if err != nil {
			return nil, fmt.Errorf("failed to compute perceptual hash: %w", err)
		}
		f.pHash = pHash
	}
	return f.pHash, nil
}

// Distance returns the perceptual hash distance between the fixture and img.
func (f *Fixture) Distance(img image.Image) (_ int, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	aHash, err := f.PHash()
	if err != nil {
		return 0, err
	}
	bHash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute perceptual hash: %w", err)
	}
	return aHash.Distance(bHash)
}

// Equivalent reports whether img looks the same as the fixture.
// JPEG compression changes pixels, so perceptual hashes are compared instead of bytes.
func (f *Fixture) Equivalent(img image.Image) bool {
	if f == nil || img == nil {
		return false
	}
	distance, err := f.Distance(img)
	if err != nil {
		return false
	}
	return distance < similarityThreshold
}
