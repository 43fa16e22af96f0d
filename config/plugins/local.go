package plugins

// Local 本地存储配置
type Local struct {
	RootPath string `mapstructure:"root_path" json:"root_path" yaml:"root_path"`
	Enabled  bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}
