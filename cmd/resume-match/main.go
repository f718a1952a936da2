package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-match-go/internal/agent"
	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/extractor"
	appLogger "resume-match-go/internal/logger"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/recommend"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"
)

const serviceName = "resume-match-go"

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(appLogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitTracerProvider(ctx, tracing.Config{
			ServiceName:  serviceName,
			OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
			SampleRatio:  cfg.Tracing.SampleRatio,
		})
		if err != nil {
			glog.Fatalf("初始化链路追踪失败: %v", err)
		}
		defer func() {
			flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelFlush()
			if err := shutdownTracing(flushCtx); err != nil {
				glog.Warnf("冲刷链路追踪数据失败: %v", err)
			}
		}()
		glog.Info("链路追踪初始化成功")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	llmTimeout := cfg.Recommend.LLMTimeout()
	chatModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.Aliyun.Model, cfg.Aliyun.APIURL, llmTimeout)
	if err != nil {
		glog.Fatalf("初始化聊天模型失败: %v", err)
	}

	embedder, err := parser.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		glog.Fatalf("初始化Embedder失败: %v", err)
	}

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx)
	if err != nil {
		glog.Fatalf("创建PDF提取器失败: %v", err)
	}

	var loader parser.ResumeLoader
	switch cfg.PDF.StorageType {
	case "minio":
		if storageManager.MinIO == nil {
			glog.Fatalf("PDF存储类型为minio但MinIO未初始化")
		}
		loader = parser.NewMinIOPDFLoader(storageManager.MinIO, pdfExtractor)
	default:
		loader = parser.NewLocalPDFLoader(pdfExtractor)
	}
	glog.Infof("简历加载器初始化成功，存储类型: %s", cfg.PDF.StorageType)

	strategy, err := extractor.ParseStrategyType(cfg.Recommend.ExtractStrategy)
	if err != nil {
		glog.Fatalf("解析提取策略失败: %v", err)
	}
	contentExtractor, err := extractor.NewContentExtractor(chatModel, strategy)
	if err != nil {
		glog.Fatalf("初始化简历信息提取器失败: %v", err)
	}

	filterExtractor, err := extractor.NewQueryFilterExtractor(chatModel, storageManager.Redis)
	if err != nil {
		glog.Fatalf("初始化查询过滤器提取器失败: %v", err)
	}

	questionGen, err := extractor.NewQuestionGenerator(chatModel)
	if err != nil {
		glog.Fatalf("初始化面试问题生成器失败: %v", err)
	}

	resumeStore, err := recommend.NewResumeStore(storageManager.Qdrant, embedder)
	if err != nil {
		glog.Fatalf("初始化简历向量存储失败: %v", err)
	}

	retriever, err := recommend.NewCandidateRetriever(resumeStore, cfg.Recommend.OverfetchFactor)
	if err != nil {
		glog.Fatalf("初始化候选检索器失败: %v", err)
	}

	var reranker recommend.Reranker = recommend.NewPassthroughReranker()
	if cfg.Reranker.Enabled {
		reranker, err = recommend.NewCrossEncoderReranker(&cfg.Reranker)
		if err != nil {
			glog.Fatalf("初始化重排服务客户端失败: %v", err)
		}
		glog.Infof("交叉编码器重排已启用: %s", cfg.Reranker.URL)
	}

	recommender, err := recommend.NewRecommender(
		filterExtractor, retriever, reranker, cfg.Reranker.Enabled, cfg.Recommend.TopK, llmTimeout)
	if err != nil {
		glog.Fatalf("初始化推荐器失败: %v", err)
	}

	var ingestOpts []processor.IngestOption
	if storageManager.Redis != nil {
		ingestOpts = append(ingestOpts, processor.WithDeduplicator(storageManager.Redis))
	}
	if storageManager.MySQL != nil {
		ingestOpts = append(ingestOpts, processor.WithAuditStore(storageManager.MySQL))
	}
	if storageManager.RabbitMQ != nil {
		ingestOpts = append(ingestOpts, processor.WithEventPublisher(storageManager.RabbitMQ))
	}
	ingestService, err := processor.NewResumeIngestService(loader, contentExtractor, resumeStore, llmTimeout, ingestOpts...)
	if err != nil {
		glog.Fatalf("初始化简历入库服务失败: %v", err)
	}

	var questionSaver handler.QuestionSaver
	if storageManager.MySQL != nil {
		questionSaver = storageManager.MySQL
	}
	aiHandler := handler.NewAIHandler(
		recommender, resumeStore, questionGen, ingestService, chatModel, questionSaver, llmTimeout)
	glog.Info("AIHandler初始化成功")

	serverOpts := []hzconfig.Option{server.WithHostPorts(cfg.Server.Address)}
	var h *server.Hertz
	if cfg.Tracing.Enabled {
		tracer, tracerCfg := hertztracing.NewServerTracer()
		h = server.New(append(serverOpts, tracer)...)
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	} else {
		h = server.New(serverOpts...)
	}

	router.RegisterRoutes(h, cfg, aiHandler)
	glog.Info("HTTP路由注册成功")

	go func() {
		glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}
