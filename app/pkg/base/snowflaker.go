package base

/*
雪花算法
*/

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/onetake/mediaupload/app/pkg/utils"
)

var (
	snowFlake *Snowflake
	once      sync.Once
)

const (
	twepoch            = int64(1417937700000) // Unix纪元时间戳
	workerIdBits       = uint(5)              // 机器ID所占位数
	datacenterBits     = uint(5)              // 数据中心ID所占位数
	maxWorkerId        = int64(-1) ^ (int64(-1) << workerIdBits)
	maxDatacenterId    = int64(-1) ^ (int64(-1) << datacenterBits)
	sequenceBits       = uint(12) // 序列号所占位数
	workerIdShift      = sequenceBits
	datacenterIdShift  = sequenceBits + workerIdBits
	timestampLeftShift = sequenceBits + workerIdBits + datacenterBits
	sequenceMask       = int64(-1) ^ (int64(-1) << sequenceBits)
)

// Snowflake .
type Snowflake struct {
	mu            sync.Mutex
	lastTimestamp int64
	workerId      int64
	datacenterId  int64
	sequence      int64
}

// InitSnowFlake workerId 优先取配置，为0且有 redis 时按主机名自增分配
func InitSnowFlake(workerId int64, rdb *redis.Client) error {
	if workerId == 0 && rdb != nil {
		id, err := workerIdFromRedis(rdb)
		if err != nil {
			return err
		}
		workerId = id
	}
	if workerId < 0 || workerId > maxWorkerId {
		return fmt.Errorf("worker id %d 超出范围 [0, %d]", workerId, maxWorkerId)
	}
	var initErr error
	once.Do(func() {
		res, err := newSnowFlake(workerId, 0)
		if err != nil {
			initErr = err
			return
		}
		snowFlake = res
	})
	return initErr
}

func workerIdFromRedis(rdb *redis.Client) (int64, error) {
	ctx := context.Background()
	host, err := os.Hostname()
	if err != nil {
		return 0, err
	}
	key := utils.WorkID + ":" + host
	if cur, err := rdb.Get(ctx, key).Result(); err == nil {
		return strconv.ParseInt(cur, 10, 64)
	} else if err != redis.Nil {
		return 0, err
	}
	newWorkId, err := rdb.Incr(ctx, utils.WorkID).Result()
	if err != nil {
		return 0, err
	}
	rdb.Set(ctx, key, newWorkId, -1)
	return newWorkId, nil
}

func newSnowFlake(workerId, datacenterId int64) (*Snowflake, error) {
	if workerId < 0 || workerId > maxWorkerId {
		return nil, errors.New("worker id out of range")
	}
	if datacenterId < 0 || datacenterId > maxDatacenterId {
		return nil, errors.New("datacenter id out of range")
	}
	return &Snowflake{
		lastTimestamp: 0,
		workerId:      workerId,
		datacenterId:  datacenterId,
		sequence:      0,
	}, nil
}

// NewSnowFlake 未初始化时使用默认 workerId
func NewSnowFlake() *Snowflake {
	if snowFlake == nil {
		once.Do(func() {
			res, err := newSnowFlake(10, 10)
			if err != nil {
				panic(err)
			}
			snowFlake = res
		})
	}
	return snowFlake
}

// NextId .
func (sf *Snowflake) NextId() (int64, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	timestamp := time.Now().UnixNano() / 1000000

	if timestamp < sf.lastTimestamp {
		return 0, errors.New("clock moved backwards")
	}

	if timestamp == sf.lastTimestamp {
		sf.sequence = (sf.sequence + 1) & sequenceMask
		if sf.sequence == 0 {
			// 当前毫秒序列号用尽，等下一毫秒
			for timestamp <= sf.lastTimestamp {
				timestamp = time.Now().UnixNano() / 1000000
			}
		}
	} else {
		sf.sequence = 0
	}

	sf.lastTimestamp = timestamp
	id := ((timestamp - twepoch) << timestampLeftShift) | (sf.datacenterId << datacenterIdShift) | (sf.workerId << workerIdShift) | sf.sequence

	return id, nil
}
