package config

import "github.com/onetake/mediaupload/config/plugins"

// Configuration 配置文件中所有字段对应的结构体
type Configuration struct {
	App       App                 `mapstructure:"app" json:"app" yaml:"app"`
	Log       Log                 `mapstructure:"log" json:"log" yaml:"log"`
	Database  []*plugins.Database `mapstructure:"database" json:"database" yaml:"database"`
	Redis     *plugins.Redis      `mapstructure:"redis" json:"redis" yaml:"redis"`
	Minio     *plugins.Minio      `mapstructure:"minio" json:"minio" yaml:"minio"`
	Cos       *plugins.Cos        `mapstructure:"cos" json:"cos" yaml:"cos"`
	Oss       *plugins.Oss        `mapstructure:"oss" json:"oss" yaml:"oss"`
	Local     *plugins.Local      `mapstructure:"local" json:"local" yaml:"local"`
	Upload    *Upload             `mapstructure:"upload" json:"upload" yaml:"upload"`
	Processor *Processor          `mapstructure:"processor" json:"processor" yaml:"processor"`
}

// App 应用配置
type App struct {
	Env      string `mapstructure:"env" json:"env" yaml:"env"`
	Port     string `mapstructure:"port" json:"port" yaml:"port"`
	AppName  string `mapstructure:"app_name" json:"app_name" yaml:"app_name"`
	AppUrl   string `mapstructure:"app_url" json:"app_url" yaml:"app_url"`
	WorkerId int64  `mapstructure:"worker_id" json:"worker_id" yaml:"worker_id"`
}

// Log 日志配置
type Log struct {
	Level      string `mapstructure:"level" json:"level" yaml:"level"`
	RootDir    string `mapstructure:"root_dir" json:"root_dir" yaml:"root_dir"`
	Filename   string `mapstructure:"filename" json:"filename" yaml:"filename"`
	Format     string `mapstructure:"format" json:"format" yaml:"format"`
	ShowLine   bool   `mapstructure:"show_line" json:"show_line" yaml:"show_line"`
	EnableFile bool   `mapstructure:"enable_file" json:"enable_file" yaml:"enable_file"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"` // MB
	MaxAge     int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`    // day
	Compress   bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// Upload 分片上传会话配置
type Upload struct {
	BasePath  string `mapstructure:"base_path" json:"base_path" yaml:"base_path"`    // 本地会话目录
	Registry  string `mapstructure:"registry" json:"registry" yaml:"registry"`       // local | minio | database
	PartStore string `mapstructure:"part_store" json:"part_store" yaml:"part_store"` // local | minio
	Bucket    string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`             // minio 会话桶
	CacheTTL  int    `mapstructure:"cache_ttl" json:"cache_ttl" yaml:"cache_ttl"`    // 秒，0 不缓存
}

// Processor 媒体后处理配置
type Processor struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	FfmpegPath string `mapstructure:"ffmpeg_path" json:"ffmpeg_path" yaml:"ffmpeg_path"`
}
