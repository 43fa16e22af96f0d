package handlers

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/onetake/mediaupload/app/pkg/event"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"go.uber.org/zap"
)

var lifecycle = []string{event.UploadInit, event.UploadPart, event.PublishSuccess, event.UploadFailed}

// RegisterLog 所有生命周期事件写一条结构化日志
func RegisterLog(e *event.EventsHandler, logger *zap.Logger) {
	for _, name := range lifecycle {
		e.RegHandler(name, func(_ context.Context, ev event.Event) error {
			fields := []zap.Field{zap.String("event", ev.Name), zap.String("uploadId", ev.UploadId),
				zap.String("ownerId", ev.OwnerId)}
			if ev.PartIndex != nil {
				fields = append(fields, zap.Int("partIndex", *ev.PartIndex))
			}
			if ev.Reason != "" {
				fields = append(fields, zap.String("reason", ev.Reason))
			}
			logger.Info("上传事件", fields...)
			return nil
		})
	}
}

// RegisterRedisPublish 事件以 json 发布到 redis 频道，供分析服务订阅
func RegisterRedisPublish(e *event.EventsHandler, rdb *redis.Client) {
	publish := func(ctx context.Context, ev event.Event) error {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		return rdb.Publish(ctx, utils.EventChannel, b).Err()
	}
	for _, name := range lifecycle {
		e.RegHandler(name, publish)
	}
}
