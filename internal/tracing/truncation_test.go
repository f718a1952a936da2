package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "短文本", TruncateString("短文本", 10))

	long := strings.Repeat("简历内容", 100)
	truncated := TruncateString(long, 20)
	assert.LessOrEqual(t, len([]rune(truncated)), 20)
	assert.Contains(t, truncated, "...")
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("张"))
	assert.Equal(t, "张*", MaskPII("张伟"))
	assert.Equal(t, "王*明", MaskPII("王小明"))
	masked := MaskPII("zhangwei@example.com")
	assert.Equal(t, "zh", masked[:2])
	assert.Contains(t, masked, "*")
	assert.NotContains(t, masked, "example")
}

func TestSafeAttributeValue(t *testing.T) {
	// 属性名含敏感关键字时值被掩码
	assert.Equal(t, "张*", SafeAttributeValue("applicant_name", "张伟", DefaultMaxLength))
	assert.Equal(t, "张*", SafeAttributeValue("姓名", "张伟", DefaultMaxLength))

	// 非敏感属性只做截断
	long := strings.Repeat("a", 300)
	safe := SafeAttributeValue("query", long, DefaultMaxLength)
	assert.LessOrEqual(t, len([]rune(safe)), DefaultMaxLength)
}

func TestSafeResumeContent(t *testing.T) {
	long := strings.Repeat("工作经历", 100)
	assert.LessOrEqual(t, len([]rune(SafeResumeContent(long))), MaxResumeLength)
	assert.Equal(t, "简短内容", SafeResumeContent("简短内容"))
}
