package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const AvatarSize = 256

// NormalizeAvatar decodes an uploaded image, crops it to a centered square
// and re-encodes it as a 256x256 JPEG.
func NormalizeAvatar(r io.Reader) (*bytes.Buffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", err)
	}

	square := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, square, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return &buf, nil
}
