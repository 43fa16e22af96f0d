package base

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
	"net/http"
)

// DigestReader 边读边算 md5 和长度，转存对象时不落盘
type DigestReader struct {
	r    io.Reader
	hash hash.Hash
	n    int64
}

// NewDigestReader .
func NewDigestReader(r io.Reader) *DigestReader {
	return &DigestReader{r: r, hash: md5.New()}
}

// Read .
func (d *DigestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		d.hash.Write(p[:n])
		d.n += int64(n)
	}
	return n, err
}

// Md5 已读部分的 md5
func (d *DigestReader) Md5() string {
	return hex.EncodeToString(d.hash.Sum(nil))
}

// Size 已读字节数
func (d *DigestReader) Size() int64 {
	return d.n
}

// DetectContentType 嗅探前512字节，声明类型为空时兜底
func DetectContentType(head []byte) string {
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}
