package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"
	// RecommendModulePrefix 推荐模块
	RecommendModulePrefix = "recommend"

	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityFilter 查询过滤器实体
	EntityFilter = "filter"

	// KeyResumeTextMD5Set 简历文本MD5集合，用于入库去重 (SET)
	// 格式: app:resume:dedup_set
	KeyResumeTextMD5Set = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityDedupSet

	// KeyQueryFilterCache 查询过滤器缓存 (STRING, JSON值)
	// 格式: app:recommend:filter:{messageMD5}
	KeyQueryFilterCache = AppPrefix + ":" + RecommendModulePrefix + ":" + EntityFilter + ":%s"
)
