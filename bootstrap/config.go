package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/onetake/mediaupload/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath   string
	rootPath     = "" // utils.RootPath()
	lgConfig     = new(LangGoConfig)
	confFilePath = "conf/config.yaml"
)

// LangGoConfig 全局配置
type LangGoConfig struct {
	Conf *config.Configuration
	Once *sync.Once
}

// newLangGoConfig .
func newLangGoConfig() *LangGoConfig {
	return &LangGoConfig{
		Conf: &config.Configuration{},
		Once: &sync.Once{},
	}
}

// NewConfig 初始化配置对象，只加载一次
func NewConfig(confFile string) *config.Configuration {
	if lgConfig.Conf != nil {
		return lgConfig.Conf
	}
	lgConfig = newLangGoConfig()
	if confFile == "" {
		lgConfig.initLangGoConfig(confFilePath)
	} else {
		lgConfig.initLangGoConfig(confFile)
	}
	return lgConfig.Conf
}

func (lg *LangGoConfig) initLangGoConfig(confFile string) {
	lg.Once.Do(
		func() {
			initConfig(lg.Conf, confFile)
		},
	)
}

func initConfig(conf *config.Configuration, confFile string) {
	pflag.StringVarP(&configPath, "conf", "", filepath.Join(rootPath, confFile),
		"config path, eg: --conf config.yaml")
	if !pflag.Parsed() {
		pflag.Parse()
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(rootPath, configPath)
	}

	fmt.Println("load config:" + configPath)

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		fmt.Println("read config failed: ", zap.String("err", err.Error()))
		panic(err)
	}

	if err := v.Unmarshal(conf); err != nil {
		fmt.Println("config parse failed: ", zap.String("err", err.Error()))
	}
	fillUploadDefaults(conf)

	v.WatchConfig()
	v.OnConfigChange(func(in fsnotify.Event) {
		fmt.Println("", zap.String("config file changed:", in.Name))
		defer func() {
			if err := recover(); err != nil {
				fmt.Println("config file changed err:", zap.Any("err", err))
			}
		}()
		if err := v.Unmarshal(conf); err != nil {
			fmt.Println("config parse failed: ", zap.String("err", err.Error()))
		}
		fillUploadDefaults(conf)
	})
	lgConfig.Conf = conf
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", "8888")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.root_dir", "./storage/logs")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("upload.registry", "local")
	v.SetDefault("upload.part_store", "local")
	v.SetDefault("upload.bucket", "uploads")
	v.SetDefault("processor.enabled", true)
	v.SetDefault("processor.ffmpeg_path", "ffmpeg")
}

// fillUploadDefaults 零值段落兜底，base_path 为空时落到系统临时目录
func fillUploadDefaults(conf *config.Configuration) {
	if conf.Upload == nil {
		conf.Upload = &config.Upload{Registry: "local", PartStore: "local", Bucket: "uploads"}
	}
	if conf.Upload.BasePath == "" {
		conf.Upload.BasePath = filepath.Join(os.TempDir(), "onetake_uploads")
	}
	if conf.Processor == nil {
		conf.Processor = &config.Processor{Enabled: true, FfmpegPath: "ffmpeg"}
	}
}
