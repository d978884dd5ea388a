package server

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

const (
	ThumbnailWidth  uint = 1920 / 4
	ThumbnailHeight uint = 1080 / 4
)

var AllowedThumbnailMimeTypes = []string{"image/jpeg", "image/png", "image/gif"}

// MakeThumbnail creates a thumbnail from an original upload, scaled to fit in
// ThumbnailWidth x ThumbnailHeight. Gifs stay gifs (first frame only), everything
// else becomes a png. It returns the thumbnail and its mime type.
func MakeThumbnail(mime string, original io.Reader) (io.Reader, string, error) {
	var img image.Image

	switch mime {
	case "image/jpeg":
		dec, err := jpeg.Decode(original)
		if err != nil {
			return nil, "", fmt.Errorf("decode jpeg: %w", err)
		}
		img = dec
	case "image/png":
		dec, err := png.Decode(original)
		if err != nil {
			return nil, "", fmt.Errorf("decode png: %w", err)
		}
		img = dec
	case "image/gif":
		dec, err := gif.Decode(original)
		if err != nil {
			return nil, "", fmt.Errorf("decode gif: %w", err)
		}

		thumb, err := encodeGif(resize.Thumbnail(ThumbnailWidth, ThumbnailHeight, dec, resize.Lanczos3))
		if err != nil {
			return nil, "", fmt.Errorf("encode gif: %w", err)
		}

		return thumb, "image/gif", nil
	default:
		return nil, "", fmt.Errorf("mime type '%s' can't be used to create thumbnails", mime)
	}

	thumbImg := resize.Thumbnail(ThumbnailWidth, ThumbnailHeight, img, resize.Lanczos3)
	buff := new(bytes.Buffer)
	if err := png.Encode(buff, thumbImg); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}

	return buff, "image/png", nil
}
