package util

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectImage 校验内容是否为图片，返回探测出的 MIME 类型
func DetectImage(data []byte) (string, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	mimeType := http.DetectContentType(head)
	if !IsImage(mimeType) {
		return mimeType, errors.New("invalid file type: " + mimeType)
	}
	return mimeType, nil
}

func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// SanitizeFilename 去掉路径成分和控制字符，空名回退为 image
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "image"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
