// Package vision はGoogle Cloud Vision APIのオブジェクト検出を使った検出器を提供します。
package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/disintegration/imaging"

	"agriscan_backend/internal/feature/analysis/domain"
	"agriscan_backend/internal/feature/analysis/domain/entity"
	"agriscan_backend/internal/feature/analysis/usecase"
)

// VisionDetector はCloud Vision APIのOBJECT_LOCALIZATIONで物体を検出します。
type VisionDetector struct {
	client     *gvision.ImageAnnotatorClient
	maxResults int32
}

// VisionDetectorがDetectorを実装していることをコンパイル時に検証します。
var _ usecase.Detector = (*VisionDetector)(nil)

// NewVisionDetector はADCを使用してVisionDetectorの新しいインスタンスを生成します。
func NewVisionDetector(ctx context.Context, maxResults int) (*VisionDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionDetector{client: client, maxResults: int32(maxResults)}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionDetector) Close() error {
	return v.client.Close()
}

// Detect は画像をPNGに再エンコードしてAPIに送り、結果を1つのResultGroupとして返します。
func (v *VisionDetector) Detect(ctx context.Context, img image.Image) ([]entity.ResultGroup, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode image: %v", domain.ErrInference, err)
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: buf.Bytes()},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_OBJECT_LOCALIZATION, MaxResults: v.maxResults},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: vision API request failed: %v", domain.ErrInference, err)
	}

	if len(resp.Responses) == 0 {
		return nil, nil
	}

	if resp.Responses[0].Error != nil {
		return nil, fmt.Errorf("%w: vision API error: %s", domain.ErrInference, resp.Responses[0].Error.Message)
	}

	b := img.Bounds()
	group := toResultGroup(resp.Responses[0].LocalizedObjectAnnotations, b.Dx(), b.Dy())
	return []entity.ResultGroup{group}, nil
}

// toResultGroup は正規化座標をピクセル座標に変換します。
// クラス番号は初出順に割り当てます。
func toResultGroup(objects []*visionpb.LocalizedObjectAnnotation, width, height int) entity.ResultGroup {
	group := entity.ResultGroup{
		Boxes: make([]entity.RawBox, 0, len(objects)),
		Names: map[int]string{},
	}
	index := map[string]int{}

	for _, obj := range objects {
		idx, ok := index[obj.GetName()]
		if !ok {
			idx = len(index)
			index[obj.GetName()] = idx
			group.Names[idx] = obj.GetName()
		}

		vertices := obj.GetBoundingPoly().GetNormalizedVertices()
		if len(vertices) == 0 {
			continue
		}
		x1, y1 := float64(vertices[0].GetX()), float64(vertices[0].GetY())
		x2, y2 := x1, y1
		for _, vt := range vertices[1:] {
			x1 = min(x1, float64(vt.GetX()))
			y1 = min(y1, float64(vt.GetY()))
			x2 = max(x2, float64(vt.GetX()))
			y2 = max(y2, float64(vt.GetY()))
		}

		group.Boxes = append(group.Boxes, entity.RawBox{
			ClassIndex: idx,
			Confidence: float64(obj.GetScore()),
			X1:         x1 * float64(width),
			Y1:         y1 * float64(height),
			X2:         x2 * float64(width),
			Y2:         y2 * float64(height),
		})
	}
	return group
}
