package extractor

import (
	"fmt"
	"strings"
)

// StrategyType 简历内容提取策略。策略集合在编译期固定，
// 新增策略需要同时扩展常量与构造分支。
type StrategyType string

const (
	// StrategySummarize 先让LLM压缩简历要点，再从摘要中提炼结构化字段
	StrategySummarize StrategyType = "summarize"
	// StrategySection 先让LLM按简历板块重组内容，再从重组结果中提炼结构化字段
	StrategySection StrategyType = "section"
	// StrategySplit 直接在原文上提炼结构化字段，摘要为切分后的原文
	StrategySplit StrategyType = "split"
)

// ParseStrategyType 校验策略名称，非法值返回错误
func ParseStrategyType(s string) (StrategyType, error) {
	switch StrategyType(strings.ToLower(strings.TrimSpace(s))) {
	case StrategySummarize:
		return StrategySummarize, nil
	case StrategySection:
		return StrategySection, nil
	case StrategySplit:
		return StrategySplit, nil
	default:
		return "", fmt.Errorf("未知的内容提取策略: %q (可选: summarize, section, split)", s)
	}
}

// 原文切分参数，与split策略的分块行为绑定
const (
	splitChunkSize    = 500
	splitChunkOverlap = 50
)

// splitContent 将简历原文切分为带重叠的片段，优先在段落与句子边界断开
func splitContent(content string) []string {
	runes := []rune(content)
	if len(runes) <= splitChunkSize {
		return []string{content}
	}

	separators := []string{"\n\n", "\n", ". ", "。", " "}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + splitChunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// 在窗口内从后向前找最合适的断点
		window := string(runes[start:end])
		cut := -1
		for _, sep := range separators {
			if idx := strings.LastIndex(window, sep); idx > 0 {
				cut = idx + len(sep)
				break
			}
		}
		if cut <= 0 {
			cut = len(window)
		}

		chunk := string(runes[start : start+len([]rune(window[:cut]))])
		chunks = append(chunks, chunk)

		advance := len([]rune(chunk)) - splitChunkOverlap
		if advance <= 0 {
			advance = len([]rune(chunk))
		}
		start += advance
	}
	return chunks
}
