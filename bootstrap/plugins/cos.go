package plugins

import (
	"context"
	"fmt"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/onetake/mediaupload/config"
	"github.com/tencentyun/cos-go-sdk-v5"
	"go.uber.org/zap"
	"net/http"
	"net/url"
	"sync"
)

var lgCos = new(LangGoCos)

type LangGoCos struct {
	Once      *sync.Once
	CosClient *cos.Client
}

func (lg *LangGoCos) NewCos() *cos.Client {
	if lgCos.CosClient != nil {
		return lgCos.CosClient
	} else {
		return lg.New().(*cos.Client)
	}
}

func newLangGoCos() *LangGoCos {
	return &LangGoCos{
		CosClient: &cos.Client{},
		Once:      &sync.Once{},
	}
}

func (lg *LangGoCos) Name() string {
	return "Cos"
}

func (lg *LangGoCos) New() interface{} {
	lgCos = newLangGoCos()
	lgCos.initCos(bootstrap.NewConfig(""))
	return lgCos.CosClient
}

func (lg *LangGoCos) Health() {
	ok, err := lgCos.CosClient.Bucket.IsExist(context.Background())
	if err == nil && ok {
		return
	} else if err != nil {
		bootstrap.NewLogger().Logger.Error("Cos connect failed, err:", zap.Any("err", err))
		panic("failed to connect cos")
	} else {
		return
	}
}

func (lg *LangGoCos) Close() {}

// Flag .
func (lg *LangGoCos) Flag() bool {
	conf := bootstrap.NewConfig("")
	return conf.Cos != nil && conf.Cos.Enabled
}

func init() {
	p := &LangGoCos{}
	RegisteredPlugin(p)
}

func (lg *LangGoCos) initCos(conf *config.Configuration) {
	lg.Once.Do(func() {
		appid := conf.Cos.Appid
		region := conf.Cos.Region
		secretId := conf.Cos.SecretId
		secretKey := conf.Cos.SecretKey
		// bucket 在请求时按后缀选择，这里只给出服务地址
		u, _ := url.Parse(fmt.Sprintf("https://%s-%s.cos.%s.myqcloud.com", conf.Upload.Bucket, appid, region))
		b := &cos.BaseURL{BucketURL: u}
		lgCos.CosClient = cos.NewClient(b, &http.Client{
			Transport: &cos.AuthorizationTransport{
				SecretID:  secretId,
				SecretKey: secretKey,
			},
		})
	})
}
