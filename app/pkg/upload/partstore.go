package upload

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/onetake/mediaupload/app/pkg/utils"
)

// PartStore 按 (uploadId, partIndex) 存放分片
type PartStore interface {
	// Prepare 为会话准备存储位置，init 时调用，可重复调用
	Prepare(ctx context.Context, id string) error

	// SavePart 覆盖写入，写完之前读者看不到该分片；会话位置不存在时返回 ErrSessionNotFound
	SavePart(ctx context.Context, id string, index int, r io.Reader) error

	// ListIndices 升序，会话不存在或没有分片时返回空
	ListIndices(ctx context.Context, id string) ([]int, error)

	// MergeOrdered 按序号升序拼接所有分片，流式读取；没有分片时返回 ErrNoPartsFound
	MergeOrdered(ctx context.Context, id string) (io.ReadCloser, error)

	// DeleteSession 删除全部分片和合并临时文件，尽力而为
	DeleteSession(ctx context.Context, id string)
}

func partName(index int) string {
	return utils.PartFilePrefix + strconv.Itoa(index)
}

// parsePartName part_<n> 之外的名字（meta.json、临时文件）都忽略
func parsePartName(name string) (int, bool) {
	if !strings.HasPrefix(name, utils.PartFilePrefix) {
		return 0, false
	}
	digits := name[len(utils.PartFilePrefix):]
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortedIndices(set map[int]struct{}) []int {
	ret := make([]int, 0, len(set))
	for i := range set {
		ret = append(ret, i)
	}
	sort.Ints(ret)
	return ret
}

// orderedReader 依次打开每个分片，同一时刻只持有一个分片的句柄
type orderedReader struct {
	ctx     context.Context
	indices []int
	open    func(ctx context.Context, index int) (io.ReadCloser, error)
	cur     io.ReadCloser
	closed  bool
}

func newOrderedReader(ctx context.Context, indices []int,
	open func(ctx context.Context, index int) (io.ReadCloser, error)) *orderedReader {
	return &orderedReader{ctx: ctx, indices: indices, open: open}
}

func (o *orderedReader) Read(p []byte) (int, error) {
	if o.closed {
		return 0, io.ErrClosedPipe
	}
	for {
		if o.cur == nil {
			if len(o.indices) == 0 {
				return 0, io.EOF
			}
			if err := o.ctx.Err(); err != nil {
				return 0, err
			}
			rc, err := o.open(o.ctx, o.indices[0])
			if err != nil {
				return 0, err
			}
			o.cur = rc
			o.indices = o.indices[1:]
		}
		n, err := o.cur.Read(p)
		if err == io.EOF {
			_ = o.cur.Close()
			o.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (o *orderedReader) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	if o.cur != nil {
		err := o.cur.Close()
		o.cur = nil
		return err
	}
	return nil
}
