package plugins

import (
	"os"

	"github.com/onetake/mediaupload/bootstrap"
	"go.uber.org/zap"
)

// LangGoLocal 本地磁盘存储，无连接资源，只检查根目录可写
type LangGoLocal struct {
}

// Name .
func (lg *LangGoLocal) Name() string {
	return "Local"
}

// New .
func (lg *LangGoLocal) New() interface{} {
	return nil
}

// Health .
func (lg *LangGoLocal) Health() {
	conf := bootstrap.NewConfig("")
	if err := os.MkdirAll(conf.Local.RootPath, 0o755); err != nil {
		bootstrap.NewLogger().Logger.Error("本地存储目录不可用", zap.String("path", conf.Local.RootPath), zap.Error(err))
		panic(err)
	}
}

// Close .
func (lg *LangGoLocal) Close() {}

// Flag .
func (lg *LangGoLocal) Flag() bool {
	conf := bootstrap.NewConfig("")
	return conf.Local != nil && conf.Local.Enabled
}

func init() {
	p := &LangGoLocal{}
	RegisteredPlugin(p)
}
