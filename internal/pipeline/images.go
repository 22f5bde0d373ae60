package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/fetch"
)

// ErrNoImage marks an item with no usable image candidate.
var ErrNoImage = errors.New("no usable image candidate")

const (
	wideRatio         = 16.0 / 9.0
	ratioTolerance    = 0.05
	reencodeJPEGLevel = 85
	defaultImageName  = "image.jpg"
)

// ImageOptions are the featured-image constraints from configuration.
type ImageOptions struct {
	MinWidth     int
	MinHeight    int
	SkipUnderMin bool
	ForceRatio   bool
}

// ResolvedImage is a downloaded, validated featured-image candidate.
type ResolvedImage struct {
	SourceURL string
	FileName  string
	Mime      string
	Width     int
	Height    int
	Data      []byte
}

// Images downloads and validates featured-image candidates.
type Images struct {
	client *fetch.Client
	logger zerolog.Logger
}

func NewImages(client *fetch.Client, logger zerolog.Logger) *Images {
	return &Images{client: client, logger: logger}
}

// Pick tries candidates in order and returns the first that downloads,
// decodes and clears the minimum dimensions. When ForceRatio is set the
// accepted image is center-cropped to 16:9.
func (i *Images) Pick(ctx context.Context, candidates []string, opts ImageOptions) (ResolvedImage, error) {
	if i == nil || i.client == nil {
		return ResolvedImage{}, fmt.Errorf("image picker is not initialized")
	}

	seen := make(map[string]bool, len(candidates))
	tried := 0
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		tried++

		resolved, err := i.download(ctx, candidate, opts)
		if err != nil {
			i.logger.Warn().Err(err).
				Str("url", candidate).
				Msg("skipping image candidate")
			continue
		}
		return resolved, nil
	}

	if tried == 0 {
		return ResolvedImage{}, ErrNoImage
	}
	return ResolvedImage{}, fmt.Errorf("%w: all %d candidates rejected", ErrNoImage, tried)
}

func (i *Images) download(ctx context.Context, imageURL string, opts ImageOptions) (ResolvedImage, error) {
	data, _, err := i.client.Get(ctx, imageURL)
	if err != nil {
		return ResolvedImage{}, err
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ResolvedImage{}, fmt.Errorf("read image metadata: %w", err)
	}

	if opts.SkipUnderMin && (config.Width < opts.MinWidth || config.Height < opts.MinHeight) {
		return ResolvedImage{}, fmt.Errorf("image %dx%d below minimum %dx%d",
			config.Width, config.Height, opts.MinWidth, opts.MinHeight)
	}

	resolved := ResolvedImage{
		SourceURL: imageURL,
		FileName:  fileNameFromURL(imageURL),
		Mime:      "image/" + format,
		Width:     config.Width,
		Height:    config.Height,
		Data:      data,
	}

	if opts.ForceRatio {
		if cropped, ok := cropToWide(data, format); ok {
			resolved.Data = cropped.data
			resolved.Width = cropped.width
			resolved.Height = cropped.height
		}
	}

	return resolved, nil
}

type croppedImage struct {
	data   []byte
	width  int
	height int
}

// cropToWide center-crops to 16:9 when the image deviates enough from that
// ratio. On any decode or encode problem the original bytes stand.
func cropToWide(data []byte, format string) (croppedImage, bool) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return croppedImage{}, false
	}

	bounds := decoded.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return croppedImage{}, false
	}

	currentRatio := float64(width) / float64(height)
	if math.Abs(currentRatio-wideRatio) < ratioTolerance {
		return croppedImage{}, false
	}

	var crop image.Rectangle
	newHeight := int(math.Round(float64(width) / wideRatio))
	if newHeight > height {
		newWidth := int(math.Round(float64(height) * wideRatio))
		x := bounds.Min.X + (width-newWidth)/2
		crop = image.Rect(x, bounds.Min.Y, x+newWidth, bounds.Max.Y)
	} else {
		y := bounds.Min.Y + (height-newHeight)/2
		crop = image.Rect(bounds.Min.X, y, bounds.Max.X, y+newHeight)
	}

	sub, ok := decoded.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return croppedImage{}, false
	}
	region := sub.SubImage(crop)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, region)
	case "gif":
		err = gif.Encode(&buf, region, nil)
	default:
		err = jpeg.Encode(&buf, region, &jpeg.Options{Quality: reencodeJPEGLevel})
	}
	if err != nil {
		return croppedImage{}, false
	}

	return croppedImage{
		data:   buf.Bytes(),
		width:  crop.Dx(),
		height: crop.Dy(),
	}, true
}

func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return defaultImageName
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return defaultImageName
	}
	return name
}
