package onnx

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// padColor は YOLO のレターボックスで使う灰色です。
var padColor = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// letterbox は元画像を正方形のモデル入力にどう配置したかを記録します。
type letterbox struct {
	scale float64
	padX  int
	padY  int
}

// letterboxImage は縦横比を保って img を size x size に収まるよう縮小し、灰色のキャンバス中央に置きます。
func letterboxImage(img image.Image, size int) (*image.NRGBA, letterbox) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))

	nw := max(1, min(size, int(math.Round(float64(w)*scale))))
	nh := max(1, min(size, int(math.Round(float64(h)*scale))))

	resized := imaging.Resize(img, nw, nh, imaging.Linear)
	padX := (size - nw) / 2
	padY := (size - nh) / 2

	canvas := imaging.New(size, size, padColor)
	canvas = imaging.Paste(canvas, resized, image.Pt(padX, padY))
	return canvas, letterbox{scale: scale, padX: padX, padY: padY}
}

// fillCHW は img を [0,1] に正規化したプレーナーRGBとして dst に書き込みます。
// dst は 3*size*size 要素、img は size x size である必要があります。
func fillCHW(dst []float32, img *image.NRGBA, size int) {
	plane := size * size
	for y := 0; y < size; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+size*4]
		for x := 0; x < size; x++ {
			i := y*size + x
			p := row[x*4 : x*4+3]
			dst[i] = float32(p[0]) / 255
			dst[plane+i] = float32(p[1]) / 255
			dst[2*plane+i] = float32(p[2]) / 255
		}
	}
}
