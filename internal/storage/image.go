package storage

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
)

const (
	MaxProofBytes     = 5 * 1024 * 1024
	maxProofDimension = 1600
)

var (
	ErrProofTooLarge   = errors.New("payment proof must be 5MB or smaller")
	ErrUnsupportedType = errors.New("payment proof must be a JPG or PNG image")
)

var proofMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// NormalizeProof checks an uploaded proof and re-encodes it as a bounded JPEG,
// which also strips whatever else was embedded in the original file.
func NormalizeProof(data []byte) ([]byte, error) {
	if len(data) > MaxProofBytes {
		return nil, ErrProofTooLarge
	}
	if !proofMimeTypes[http.DetectContentType(data)] {
		return nil, ErrUnsupportedType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > maxProofDimension || b.Dy() > maxProofDimension {
		img = imaging.Fit(img, maxProofDimension, maxProofDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode proof: %w", err)
	}
	return buf.Bytes(), nil
}
