package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/andybons/gogif"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
)

// FetchError reports a non-success status while downloading the source
// image. It is surfaced to users verbatim in the closure announcement.
type FetchError struct {
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("image could not be retrieved, status code %d", e.StatusCode)
}

// Normalizer downloads an image and re-encodes it until it fits the
// platform's pixel-area and byte-size ceilings. Static input becomes PNG;
// animated GIF input stays GIF.
type Normalizer struct {
	MaxPixelArea int
	MaxByteSize  int64

	client *pester.Client
	dir    string
}

func NewNormalizer(maxPixelArea int, maxByteSize int64) *Normalizer {
	client := pester.NewExtendedClient(&http.Client{Timeout: 30 * time.Second})
	client.MaxRetries = 3
	client.Backoff = pester.ExponentialBackoff

	return &Normalizer{
		MaxPixelArea: maxPixelArea,
		MaxByteSize:  maxByteSize,
		client:       client,
		dir:          os.TempDir(),
	}
}

// Normalize fetches srcURL and writes the normalized artifact to a
// uniquely named file. The caller owns the file and must remove it on
// every exit path; concurrent normalizations never collide because each
// artifact name carries its own UUID.
func (n *Normalizer) Normalize(ctx context.Context, srcURL string) (string, error) {
	data, err := n.fetch(ctx, srcURL)
	if err != nil {
		return "", err
	}

	if isGIF(data) {
		return n.normalizeGIF(data)
	}
	return n.normalizeStatic(data)
}

func (n *Normalizer) fetch(ctx context.Context, srcURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building image request")
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading image body")
	}
	return data, nil
}

func (n *Normalizer) normalizeStatic(data []byte) (_ string, err error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "decoding image")
	}

	artifact := n.artifactPath("png")
	defer func() {
		if err != nil {
			os.Remove(artifact)
		}
	}()

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	for {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", errors.Wrap(err, "encoding png")
		}
		ok, err := n.writeAndCheck(artifact, buf.Bytes(), w, h)
		if err != nil {
			return "", err
		}
		if ok {
			return artifact, nil
		}

		w, h = w/2, h/2
		if w == 0 || h == 0 {
			return "", errors.Errorf("image cannot be shrunk below %s", humanize.Bytes(uint64(n.MaxByteSize)))
		}
		img = resize.Resize(uint(w), uint(h), img, resize.Bilinear)
	}
}

func (n *Normalizer) normalizeGIF(data []byte) (_ string, err error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "decoding gif")
	}

	artifact := n.artifactPath("gif")
	defer func() {
		if err != nil {
			os.Remove(artifact)
		}
	}()

	w := g.Config.Width
	h := g.Config.Height
	if w == 0 || h == 0 {
		if len(g.Image) == 0 {
			return "", errors.New("gif has no frames")
		}
		w = g.Image[0].Bounds().Dx()
		h = g.Image[0].Bounds().Dy()
	}

	for {
		var buf bytes.Buffer
		if err := gif.EncodeAll(&buf, g); err != nil {
			return "", errors.Wrap(err, "encoding gif")
		}
		ok, err := n.writeAndCheck(artifact, buf.Bytes(), w, h)
		if err != nil {
			return "", err
		}
		if ok {
			return artifact, nil
		}

		w, h = w/2, h/2
		if w == 0 || h == 0 {
			return "", errors.Errorf("animation cannot be shrunk below %s", humanize.Bytes(uint64(n.MaxByteSize)))
		}

		quantizer := gogif.MedianCutQuantizer{NumColor: 64}
		for i, frame := range g.Image {
			scaled := resize.Resize(uint(w), uint(h), frame, resize.Bilinear)
			paletted := image.NewPaletted(image.Rect(0, 0, w, h), nil)
			quantizer.Quantize(paletted, paletted.Bounds(), scaled, image.Point{})
			g.Image[i] = paletted
		}
		g.Config.Width = w
		g.Config.Height = h
	}
}

// writeAndCheck writes the candidate encoding and re-measures the file,
// reporting whether both ceilings are now satisfied.
func (n *Normalizer) writeAndCheck(path string, data []byte, w, h int) (bool, error) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, errors.Wrap(err, "writing artifact")
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Wrap(err, "measuring artifact")
	}
	return w*h <= n.MaxPixelArea && info.Size() <= n.MaxByteSize, nil
}

func (n *Normalizer) artifactPath(ext string) string {
	return filepath.Join(n.dir, fmt.Sprintf("emotegov-%s.%s", uuid.NewString(), ext))
}

func isGIF(data []byte) bool {
	return http.DetectContentType(data) == "image/gif"
}
