package onnx

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/bytedance/sonic"
	ort "github.com/yalue/onnxruntime_go"
)

// namesEntry は YOLO エクスポーターが書き出すメタデータ辞書の `0: 'name'` 一組にマッチします。
var namesEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")`)

// loadLabels はサイドカーファイルが指定されていればそこから、なければモデルメタデータの "names" からクラス名を読み込みます。
func loadLabels(labelsPath, modelPath string) (map[int]string, error) {
	if labelsPath != "" {
		data, err := os.ReadFile(labelsPath)
		if err != nil {
			return nil, fmt.Errorf("read labels file: %w", err)
		}
		return parseLabelsJSON(data)
	}

	meta, err := ort.GetModelMetadata(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model metadata: %w", err)
	}
	defer meta.Destroy()

	raw, ok, err := meta.LookupCustomMetadataMap("names")
	if err != nil {
		return nil, fmt.Errorf("lookup names metadata: %w", err)
	}
	if !ok {
		return map[int]string{}, nil
	}
	return parseNames(raw), nil
}

// parseNames は {0: 'Bacterial_spot', 1: 'Early_blight'} のような辞書リテラルを解析します。
func parseNames(s string) map[int]string {
	names := map[int]string{}
	for _, m := range namesEntry.FindAllStringSubmatch(s, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		name := m[2]
		if name == "" {
			name = m[3]
		}
		names[idx] = name
	}
	return names
}

// parseLabelsJSON は名前の配列、{"index": "name"} 形式のオブジェクト、
// またはそれらを "names" か "classes" の下に持つオブジェクトを受け付けます。
func parseLabelsJSON(data []byte) (map[int]string, error) {
	var list []string
	if err := sonic.Unmarshal(data, &list); err == nil {
		names := make(map[int]string, len(list))
		for i, n := range list {
			names[i] = n
		}
		return names, nil
	}

	var obj map[string]any
	if err := sonic.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	for _, key := range []string{"names", "classes"} {
		if nested, ok := obj[key]; ok {
			b, err := sonic.Marshal(nested)
			if err != nil {
				return nil, fmt.Errorf("parse labels: %w", err)
			}
			return parseLabelsJSON(b)
		}
	}

	names := make(map[int]string, len(obj))
	for k, v := range obj {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("parse labels: key %q is not a class index", k)
		}
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("parse labels: value for %q is not a string", k)
		}
		names[idx] = name
	}
	return names, nil
}

// completeNames は names に欠けている番号を "class<i>" で埋めます。
func completeNames(names map[int]string, numClasses int) map[int]string {
	out := make(map[int]string, numClasses)
	for i := 0; i < numClasses; i++ {
		if n, ok := names[i]; ok {
			out[i] = n
		} else {
			out[i] = "class" + strconv.Itoa(i)
		}
	}
	return out
}
