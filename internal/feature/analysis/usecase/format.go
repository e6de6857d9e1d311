package usecase

import (
	"sort"
	"strconv"

	"agriscan_backend/internal/feature/analysis/domain/entity"
)

// buildResult は結果グループをレスポンスの形に変換します。
// predictions は検出器が出力した順序を保ちます。
func buildResult(groups []entity.ResultGroup, size entity.ImageSize, catalog LabelCatalog) *entity.AnalysisResult {
	predictions := make([]entity.Detection, 0)
	for _, g := range groups {
		for _, b := range g.Boxes {
			name := className(g.Names, b.ClassIndex)
			d := entity.Detection{
				ClassName:  name,
				Confidence: b.Confidence,
				BBox:       [4]float64{b.X1, b.Y1, b.X2 - b.X1, b.Y2 - b.Y1},
			}
			if catalog != nil {
				if info, ok := catalog.Lookup(name); ok {
					d.Label = info.DisplayName
					d.Severity = info.Severity
				}
			}
			predictions = append(predictions, d)
		}
	}

	allClasses := []string{}
	if len(groups) > 0 {
		allClasses = sortedNames(groups[len(groups)-1].Names)
	}

	return &entity.AnalysisResult{
		Success:     true,
		Predictions: predictions,
		ImageSize:   size,
		AllClasses:  allClasses,
	}
}

// className はモデルのラベル表でクラス番号を名前に解決します。
func className(names map[int]string, idx int) string {
	if name, ok := names[idx]; ok {
		return name
	}
	return strconv.Itoa(idx)
}

// sortedNames はラベル表の値をクラス番号順に返します。
func sortedNames(names map[int]string) []string {
	idx := make([]int, 0, len(names))
	for i := range names {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, names[i])
	}
	return out
}
