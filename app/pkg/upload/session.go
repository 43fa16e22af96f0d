package upload

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// NewUploadId 32位小写十六进制，不带横线
func NewUploadId() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ValidId 只接受服务端生成格式的 id，其他一律视为不存在，同时杜绝路径穿越
func ValidId(id string) bool {
	return idPattern.MatchString(id)
}
