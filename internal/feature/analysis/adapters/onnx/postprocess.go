package onnx

import (
	"sort"

	"agriscan_backend/internal/feature/analysis/domain/entity"
)

// YOLOv8 検出ヘッドのストライド
var strides = []int{8, 16, 32}

// anchorsFor は指定サイズの正方形入力に対する予測数を返します。
func anchorsFor(size int) int {
	n := 0
	for _, s := range strides {
		g := size / s
		n += g * g
	}
	return n
}

type candidate struct {
	class          int
	conf           float32
	x1, y1, x2, y2 float32
}

// decodeOutput はチャンネル優先で並んだ [1, 4+numClasses, numAnchors] テンソルを読み取ります。
// 0〜3行目は入力ピクセル単位の cx, cy, w, h で、残りはクラススコアです。
// 各アンカーは最高スコアが threshold を超える場合だけそのクラスで残ります。
func decodeOutput(out []float32, numClasses, numAnchors int, threshold float32) []candidate {
	var cands []candidate
	for a := 0; a < numAnchors; a++ {
		best, bestScore := -1, threshold
		for c := 0; c < numClasses; c++ {
			if s := out[(4+c)*numAnchors+a]; s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 {
			continue
		}
		cx, cy := out[a], out[numAnchors+a]
		w, h := out[2*numAnchors+a], out[3*numAnchors+a]
		cands = append(cands, candidate{
			class: best,
			conf:  bestScore,
			x1:    cx - w/2,
			y1:    cy - h/2,
			x2:    cx + w/2,
			y2:    cy + h/2,
		})
	}
	return cands
}

// nms はクラスごとの貪欲な非最大値抑制を行います。
// 結果は信頼度の降順で、最大 maxDet 個です。
func nms(cands []candidate, iouThreshold float32, maxDet int) []candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].conf > cands[j].conf })

	kept := make([]candidate, 0, min(len(cands), maxDet))
	suppressed := make([]bool, len(cands))
	for i := range cands {
		if suppressed[i] {
			continue
		}
		kept = append(kept, cands[i])
		if len(kept) == maxDet {
			break
		}
		for j := i + 1; j < len(cands); j++ {
			if !suppressed[j] && cands[j].class == cands[i].class && iou(cands[i], cands[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func iou(a, b candidate) float32 {
	ix1, iy1 := max(a.x1, b.x1), max(a.y1, b.y1)
	ix2, iy2 := min(a.x2, b.x2), min(a.y2, b.y2)
	iw, ih := ix2-ix1, iy2-iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := (a.x2-a.x1)*(a.y2-a.y1) + (b.x2-b.x1)*(b.y2-b.y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// unletterbox は候補をモデル入力の座標から元画像の座標に戻し、画像内に収めます。
func unletterbox(c candidate, lb letterbox, width, height int) entity.RawBox {
	mapX := func(v float32) float64 {
		return clamp((float64(v)-float64(lb.padX))/lb.scale, 0, float64(width))
	}
	mapY := func(v float32) float64 {
		return clamp((float64(v)-float64(lb.padY))/lb.scale, 0, float64(height))
	}
	return entity.RawBox{
		ClassIndex: c.class,
		Confidence: float64(c.conf),
		X1:         mapX(c.x1),
		Y1:         mapY(c.y1),
		X2:         mapX(c.x2),
		Y2:         mapY(c.y2),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
