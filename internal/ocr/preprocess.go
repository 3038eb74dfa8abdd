package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sort"

	// Decoders for formats pdfcpu hands back from embedded image streams.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	thresholdBlock = 31
	thresholdC     = 10
)

// Preprocess prepares a scanned image for Tesseract: upscale narrow images to
// minWidth, convert to grayscale, binarize with an adaptive mean threshold and
// remove speckles with a 3x3 median filter. The result is PNG encoded.
func Preprocess(data []byte, minWidth int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}

	gray := toGray(upscale(src, minWidth))
	bin := medianFilter(adaptiveThreshold(gray, thresholdBlock, thresholdC))

	var out bytes.Buffer
	if err := png.Encode(&out, bin); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func upscale(src image.Image, minWidth int) image.Image {
	b := src.Bounds()
	if minWidth <= 0 || b.Dx() >= minWidth {
		return src
	}
	h := b.Dy() * minWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, minWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), src, b.Min, draw.Src)
	return g
}

// adaptiveThreshold sets a pixel white when it is brighter than the mean of its
// block x block neighbourhood minus c. Means come from a summed-area table.
func adaptiveThreshold(g *image.Gray, block, c int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	sum := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(g.Pix[y*g.Stride+x])
			sum[(y+1)*(w+1)+x+1] = sum[y*(w+1)+x+1] + row
		}
	}

	r := block / 2
	out := image.NewGray(g.Rect)
	for y := 0; y < h; y++ {
		y0, y1 := clamp(y-r, 0, h-1), clamp(y+r, 0, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := clamp(x-r, 0, w-1), clamp(x+r, 0, w-1)
			area := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			total := sum[(y1+1)*(w+1)+x1+1] - sum[y0*(w+1)+x1+1] - sum[(y1+1)*(w+1)+x0] + sum[y0*(w+1)+x0]
			v := int64(g.Pix[y*g.Stride+x])
			if v*area > total-int64(c)*area {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func medianFilter(g *image.Gray) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(g.Rect)
	window := make([]int, 0, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					yy, xx := clamp(y+dy, 0, h-1), clamp(x+dx, 0, w-1)
					window = append(window, int(g.Pix[yy*g.Stride+xx]))
				}
			}
			sort.Ints(window)
			out.Pix[y*out.Stride+x] = uint8(window[4])
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
