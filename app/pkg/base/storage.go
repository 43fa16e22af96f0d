package base

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/onetake/mediaupload/app/pkg/utils"
)

var (
	videoSuffixes = []string{"mp4", "avi", "wmv", "mpeg", "mov", "webm", "mkv", "m4v"}
	audioSuffixes = []string{"mp3", "wav", "flac", "aac", "m4a", "ogg", "opus"}
)

// GetExtension 小写后缀，不带点
func GetExtension(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// SelectBucketBySuffix 按后缀选择媒体桶
func SelectBucketBySuffix(filename string) string {
	ext := GetExtension(filename)
	switch {
	case utils.Contains(ext, videoSuffixes):
		return "video"
	case utils.Contains(ext, audioSuffixes):
		return "audio"
	default:
		return "unknown"
	}
}

// ErrRangeNotSatisfiable Range 起点超出对象大小
var ErrRangeNotSatisfiable = errors.New("range not satisfiable")

// GetRange 解析 Range 头，只支持单段 bytes=start-end。
// 头为空或格式非法时 partial=false 返回整个文件；起点越界返回 ErrRangeNotSatisfiable
func GetRange(rangeHeader string, size int64) (start, end int64, partial bool, err error) {
	end = size - 1
	if rangeHeader == "" || size <= 0 {
		return 0, end, false, nil
	}
	split := strings.SplitN(rangeHeader, "=", 2)
	if len(split) != 2 || strings.TrimSpace(split[0]) != "bytes" {
		return 0, end, false, nil
	}
	ranges := strings.SplitN(strings.TrimSpace(split[1]), "-", 2)
	if len(ranges) != 2 {
		return 0, end, false, nil
	}
	if ranges[0] == "" {
		// bytes=-N 取最后N个字节
		n, perr := strconv.ParseInt(ranges[1], 10, 64)
		if perr != nil || n < 0 {
			return 0, end, false, nil
		}
		if n == 0 {
			return 0, end, false, ErrRangeNotSatisfiable
		}
		if n > size {
			n = size
		}
		return size - n, end, true, nil
	}
	start, perr := strconv.ParseInt(ranges[0], 10, 64)
	if perr != nil || start < 0 {
		return 0, end, false, nil
	}
	if ranges[1] != "" {
		e, perr := strconv.ParseInt(ranges[1], 10, 64)
		if perr != nil || e < start {
			return 0, end, false, nil
		}
		if e < size {
			end = e
		}
	}
	if start >= size {
		return 0, size - 1, false, ErrRangeNotSatisfiable
	}
	return start, end, true, nil
}
