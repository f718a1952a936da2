package types

import "strings"

// JobCategory 表示职位类别，闭合枚举
type JobCategory string

const (
	JobFrontend  JobCategory = "frontend"
	JobBackend   JobCategory = "backend"
	JobAI        JobCategory = "ai"
	JobFullstack JobCategory = "fullstack"
	JobMobile    JobCategory = "mobile"
	JobData      JobCategory = "data"
	JobDevOps    JobCategory = "devops"
)

var jobCategories = map[JobCategory]struct{}{
	JobFrontend:  {},
	JobBackend:   {},
	JobAI:        {},
	JobFullstack: {},
	JobMobile:    {},
	JobData:      {},
	JobDevOps:    {},
}

// ParseJobCategory 将任意大小写的类别标记折叠为规范小写值并校验。
// 非法值返回 ok=false，调用方应将字段视为缺省。
func ParseJobCategory(s string) (JobCategory, bool) {
	c := JobCategory(strings.ToLower(strings.TrimSpace(s)))
	_, ok := jobCategories[c]
	return c, ok
}

// ExperienceYears 表示经验年限区间，闭合有序枚举
type ExperienceYears string

const (
	YearsJunior ExperienceYears = "0-3"
	YearsMiddle ExperienceYears = "3-7"
	YearsSenior ExperienceYears = "7-10"
)

var experienceYears = map[ExperienceYears]struct{}{
	YearsJunior: {},
	YearsMiddle: {},
	YearsSenior: {},
}

// 提示词中使用的资历别名，解析时映射回年限区间
var seniorityAliases = map[string]ExperienceYears{
	"junior": YearsJunior,
	"middle": YearsMiddle,
	"senior": YearsSenior,
}

// ParseExperienceYears 校验经验年限。接受区间字面量（"0-3"）
// 以及提示词里出现的资历别名（JUNIOR/MIDDLE/SENIOR）。
func ParseExperienceYears(s string) (ExperienceYears, bool) {
	folded := strings.ToLower(strings.TrimSpace(s))
	if y, ok := seniorityAliases[folded]; ok {
		return y, true
	}
	y := ExperienceYears(folded)
	_, ok := experienceYears[y]
	return y, ok
}

// Language 表示主力编程语言，闭合枚举
type Language string

const (
	LangPython     Language = "python"
	LangJava       Language = "java"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangKotlin     Language = "kotlin"
	LangCpp        Language = "c++"
	LangC          Language = "c"
)

var languages = map[Language]struct{}{
	LangPython:     {},
	LangJava:       {},
	LangJavaScript: {},
	LangTypeScript: {},
	LangKotlin:     {},
	LangCpp:        {},
	LangC:          {},
}

// ParseLanguage 将语言标记折叠为规范小写值并校验
func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	_, ok := languages[l]
	return l, ok
}

// ResumeMetadata 简历的结构化字段，随向量一起存入Qdrant payload。
// 枚举字段只允许规范小写值或空（未知）。
type ResumeMetadata struct {
	ResumeID      string          `json:"resume_id"`
	ApplicantName string          `json:"applicant_name"`
	JobCategory   JobCategory     `json:"job_category"`
	Years         ExperienceYears `json:"years"`
	Language      Language        `json:"language"`
}

// ResumeRecord 存储单元：简历全文 + 结构化字段。
// Embedding由Store在写入时根据Content重新计算，不单独持久化。
type ResumeRecord struct {
	ResumeID      string
	Content       string
	ApplicantName string
	JobCategory   JobCategory
	Years         ExperienceYears
	Language      Language
}

// Metadata 返回该记录的结构化字段副本
func (r ResumeRecord) Metadata() ResumeMetadata {
	return ResumeMetadata{
		ResumeID:      r.ResumeID,
		ApplicantName: r.ApplicantName,
		JobCategory:   r.JobCategory,
		Years:         r.Years,
		Language:      r.Language,
	}
}

// ResumeFilter 从自然语言查询中提取的部分约束。
// 空字符串表示该字段缺省，不参与过滤。
type ResumeFilter struct {
	JobCategory   JobCategory     `json:"job_category,omitempty"`
	Years         ExperienceYears `json:"years,omitempty"`
	Language      Language        `json:"language,omitempty"`
	ApplicantName string          `json:"applicant_name,omitempty"`
}

// IsEmpty 判断过滤器是否不含任何约束
func (f ResumeFilter) IsEmpty() bool {
	return f.JobCategory == "" && f.Years == "" && f.Language == "" && f.ApplicantName == ""
}

// Conditions 返回非缺省字段到payload键值的映射，供存储层组装AND过滤
func (f ResumeFilter) Conditions() map[string]string {
	conds := make(map[string]string)
	if f.JobCategory != "" {
		conds["job_category"] = string(f.JobCategory)
	}
	if f.Years != "" {
		conds["years"] = string(f.Years)
	}
	if f.Language != "" {
		conds["language"] = string(f.Language)
	}
	if f.ApplicantName != "" {
		conds["applicant_name"] = f.ApplicantName
	}
	return conds
}

// SearchResult 单次查询的临时结果，响应返回后即丢弃。
// Score默认为0，只有经过重排后才有意义。
type SearchResult struct {
	Metadata ResumeMetadata
	Content  string
	Score    float32
}

// QuestionType 面试问题类别
type QuestionType string

const (
	QuestionJob        QuestionType = "job"        // 职位相关问题
	QuestionCulture    QuestionType = "culture"    // 文化契合问题
	QuestionExperience QuestionType = "experience" // 经验相关问题
	QuestionProject    QuestionType = "project"    // 项目相关问题
)

// InterviewQuestion 针对一份简历生成的单个面试问题
type InterviewQuestion struct {
	QuestionType QuestionType `json:"question_type"`
	Question     string       `json:"question"`
}

// ResumeInfo LLM从简历全文中提取出的结构化信息
type ResumeInfo struct {
	ApplicantName string          `json:"applicant_name"`
	JobCategory   JobCategory     `json:"job_category"`
	Years         ExperienceYears `json:"years"`
	Language      Language        `json:"language"`
}
