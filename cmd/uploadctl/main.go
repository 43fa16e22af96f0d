package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/base"
	"github.com/onetake/mediaupload/app/pkg/client"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var commonFlags = []cli.Flag{
	cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8888", Usage: "服务地址"},
	cli.StringFlag{Name: "user", Usage: "用户ID，作为 user-id 请求头"},
}

func main() {
	app := cli.NewApp()
	app.Name = "uploadctl"
	app.Usage = "分片上传媒体并发布"
	app.Commands = []cli.Command{
		{
			Name:      "upload",
			Usage:     "上传文件，--resume 指定会话时只补传缺失分片",
			ArgsUsage: "FILE",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "text", Usage: "帖子文字"},
				cli.StringSliceFlag{Name: "tag", Usage: "标签，可重复"},
				cli.IntFlag{Name: "visibility", Value: -1, Usage: "0 公开 1 粉丝 2 私密"},
				cli.IntFlag{Name: "trim-start", Value: -1, Usage: "裁剪起点(ms)"},
				cli.IntFlag{Name: "trim-end", Value: -1, Usage: "裁剪终点(ms)"},
				cli.StringFlag{Name: "resume", Usage: "已有的 uploadId"},
			}, commonFlags...),
			Action: uploadAction,
		},
		{
			Name:      "status",
			Usage:     "查询上传进度",
			ArgsUsage: "UPLOAD_ID",
			Flags:     commonFlags,
			Action:    statusAction,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newAPI(c *cli.Context) (*client.API, error) {
	if c.String("user") == "" {
		return nil, errors.New("缺少 --user")
	}
	return client.NewAPI(c.String("server"), c.String("user")), nil
}

func optionalInt(c *cli.Context, name string) *int {
	v := c.Int(name)
	if v < 0 {
		return nil
	}
	return &v
}

// contentType 先按扩展名，再按文件头嗅探
func contentType(f *os.File) string {
	if t := mime.TypeByExtension(filepath.Ext(f.Name())); t != "" {
		return t
	}
	head := make([]byte, 512)
	n, _ := f.ReadAt(head, 0)
	return base.DetectContentType(head[:n])
}

func uploadAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("缺少文件路径")
	}
	a, err := newAPI(c)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}

	meta := client.Meta{
		FileName:    filepath.Base(path),
		ContentType: contentType(f),
		Tags:        c.StringSlice("tag"),
		TrimStartMs: optionalInt(c, "trim-start"),
		TrimEndMs:   optionalInt(c, "trim-end"),
	}
	if c.IsSet("text") {
		text := c.String("text")
		meta.Text = &text
	}
	if v := optionalInt(c, "visibility"); v != nil {
		vis := models.Visibility(*v)
		meta.Visibility = &vis
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()
	uploader := client.NewUploader(a,
		client.WithLogger(logger),
		client.WithProgress(func(p client.Progress) {
			fmt.Fprintf(os.Stderr, "\r%d/%d %3d%%", p.UploadedParts, p.TotalParts, p.Percent)
		}),
	)

	// ctrl-c 只停止后续分片，不中断已发出的请求字节
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var post *models.PostDto
	if id := c.String("resume"); id != "" {
		post, err = uploader.Resume(ctx, id, f, fi.Size(), meta)
	} else {
		post, err = uploader.Upload(ctx, f, fi.Size(), meta)
	}
	fmt.Fprintln(os.Stderr)
	if err != nil {
		if id := uploader.UploadId(); id != "" && uploader.Status() != client.StatusDone {
			fmt.Fprintf(os.Stderr, "uploadId=%s，可用 --resume 续传\n", id)
		}
		return err
	}
	return printJSON(os.Stdout, post)
}

func statusAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("缺少 uploadId")
	}
	a, err := newAPI(c)
	if err != nil {
		return err
	}
	st, err := a.Status(context.Background(), id)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, st)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
