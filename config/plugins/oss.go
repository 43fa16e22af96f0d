package plugins

// Oss 阿里云oss配置
type Oss struct {
	EndPoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKeyId     string `mapstructure:"access_key_id" json:"access_key_id" yaml:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret" json:"access_key_secret" yaml:"access_key_secret"`
	BucketPrefix    string `mapstructure:"bucket_prefix" json:"bucket_prefix" yaml:"bucket_prefix"`
	Enabled         bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}
