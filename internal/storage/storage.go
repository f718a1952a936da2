package storage

import (
	"context"
	"fmt"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖。
// Qdrant是核心依赖，初始化失败即整体失败；
// Redis/MinIO/MySQL/RabbitMQ均为可选，未配置或失败时对应功能降级。
type Storage struct {
	// 向量数据库
	Qdrant *Qdrant

	// 键值存储（过滤器缓存与文本去重）
	Redis *Redis

	// 对象存储（简历PDF）
	MinIO *MinIO

	// 关系型数据库（入库审计与问题留存）
	MySQL *MySQL

	// 消息队列（处理完成事件）
	RabbitMQ *RabbitMQ
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error

	// Qdrant是推荐与入库流水线的核心，失败时直接返回错误
	storage.Qdrant, err = NewQdrant(&cfg.Qdrant)
	if err != nil {
		return nil, fmt.Errorf("初始化Qdrant失败: %w", err)
	}

	// 初始化Redis（如果配置了）
	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败，去重与过滤器缓存不可用")
			storage.Redis = nil
		}
	}

	// 初始化MinIO（如果配置了）
	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(&cfg.MinIO)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MinIO失败，对象存储加载不可用")
			storage.MinIO = nil
		}
	}

	// 初始化MySQL（如果配置了）
	if cfg.MySQL.Host != "" {
		storage.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MySQL失败，入库审计不可用")
			storage.MySQL = nil
		}
	}

	// 初始化RabbitMQ（如果配置了）
	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败，处理完成事件不可用")
			storage.RabbitMQ = nil
		}
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}

	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
	// Qdrant与MinIO客户端无需显式Close
}
