package usecase

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"regexp"
	"strings"

	// image.Decode に登録するデコーダー
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"agriscan_backend/internal/feature/analysis/domain"
)

// dataURIPrefix は "data:<mime>;base64," ヘッダーにマッチします。
var dataURIPrefix = regexp.MustCompile(`(?i)^data:[^,]*;base64,`)

// decodeBase64Payload は data URI ヘッダーがあれば取り除き、残りのBase64文字列をデコードします。
// パディング付きの標準エンコーディングを先に試し、失敗時はパディングなしとして扱います。
func decodeBase64Payload(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if loc := dataURIPrefix.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if rawErr == nil {
		return data, nil
	}
	return nil, fmt.Errorf("%w: invalid base64 payload: %v", domain.ErrDecode, err)
}

// decodeImage は登録済みの任意フォーマットの画像をデコードします。
// ピクセルバッファを確保する前にヘッダーの寸法を検査し、空の画像と maxPixels 超過の画像を拒否します。
func decodeImage(data []byte, maxPixels int) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: cannot identify image: %v", domain.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: image has no pixels (%dx%d)", domain.ErrDecode, cfg.Width, cfg.Height)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d pixels exceeds maximum of %d pixels", domain.ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: cannot identify image: %v", domain.ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, "", fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}
	return img, format, nil
}

// toRGB は img を原点基準の不透明なNRGBA画像に変換します。
// グレースケールは各チャンネルに展開し、パレットは解決し、アルファは捨てます。
func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// colorMode はログ出力用にデコード済み画像のカラーモード名を返します。
func colorMode(img image.Image) string {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return "L"
	case *image.Paletted:
		return "P"
	case *image.YCbCr:
		return "YCbCr"
	case *image.CMYK:
		return "CMYK"
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		return "RGBA"
	default:
		return fmt.Sprintf("%T", img)
	}
}
