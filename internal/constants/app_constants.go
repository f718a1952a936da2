package constants

const (
	// MetadataKeyResumeID Qdrant payload中简历ID的键名
	MetadataKeyResumeID = "resume_id"
	// MetadataKeyContent Qdrant payload中简历全文的键名
	MetadataKeyContent = "content"

	// PointIDNamespace 基于resume_id派生Qdrant point ID的UUIDv5命名空间
	PointIDNamespace = "resume-match-point"

	// DuplicateSkippedStatus 重复简历入库时返回的状态
	DuplicateSkippedStatus = "DUPLICATE_SKIPPED"
)
