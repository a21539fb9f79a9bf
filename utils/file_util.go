package utils

import (
	"os"
	"path/filepath"
)

func EnsureDir(path string, perm os.FileMode) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, perm)
	}
	return nil
}

/*
WriteFile
写入文件，自动创建父目录
*/
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FileMTime 文件修改时间，秒级浮点数；文件不存在返回0
func FileMTime(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.ModTime().UnixNano()) / 1e9
}
