package parser

import (
	"context"
	"fmt"
)

// ResumeLoader 将简历文件路径解析为纯文本。
// file_path的含义由实现决定：本地磁盘路径或对象存储键。
type ResumeLoader interface {
	LoadText(ctx context.Context, filePath string) (string, error)
}

// LocalPDFLoader 从本地磁盘加载简历PDF
type LocalPDFLoader struct {
	extractor *EinoPDFTextExtractor
}

// NewLocalPDFLoader 创建本地磁盘加载器
func NewLocalPDFLoader(extractor *EinoPDFTextExtractor) *LocalPDFLoader {
	return &LocalPDFLoader{extractor: extractor}
}

// LoadText 打开本地PDF文件并提取文本
func (l *LocalPDFLoader) LoadText(ctx context.Context, filePath string) (string, error) {
	return l.extractor.ExtractFromFile(ctx, filePath)
}

// ObjectFetcher 从对象存储读取文件内容，由storage.MinIO实现
type ObjectFetcher interface {
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
}

// MinIOPDFLoader 从MinIO对象存储加载简历PDF
type MinIOPDFLoader struct {
	fetcher   ObjectFetcher
	extractor *EinoPDFTextExtractor
}

// NewMinIOPDFLoader 创建MinIO加载器
func NewMinIOPDFLoader(fetcher ObjectFetcher, extractor *EinoPDFTextExtractor) *MinIOPDFLoader {
	return &MinIOPDFLoader{fetcher: fetcher, extractor: extractor}
}

// LoadText 从MinIO下载PDF对象并提取文本
func (l *MinIOPDFLoader) LoadText(ctx context.Context, objectKey string) (string, error) {
	data, err := l.fetcher.GetResumeFile(ctx, objectKey)
	if err != nil {
		return "", fmt.Errorf("从对象存储读取 %s 失败: %w", objectKey, err)
	}
	return l.extractor.ExtractFromBytes(ctx, data, objectKey)
}

var (
	_ ResumeLoader = (*LocalPDFLoader)(nil)
	_ ResumeLoader = (*MinIOPDFLoader)(nil)
)
