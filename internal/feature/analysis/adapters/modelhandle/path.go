package modelhandle

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolvePath は絶対パスならそのまま、相対パスなら実行ファイルのディレクトリと結合して返します。
// カレントディレクトリは参照しません。
func ResolvePath(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), path), nil
}
