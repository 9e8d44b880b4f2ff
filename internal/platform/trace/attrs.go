package trace

// 业务 span 属性 key
const (
	AttrRequestID = "request.id"
	AttrAuthUser  = "enduser.id"


	AttrUserID          = "urlbatch.user_id"
	AttrTaskType        = "urlbatch.task_type"
	AttrUniqueURLs      = "urlbatch.unique_urls"
	AttrDuplicateURLs   = "urlbatch.duplicate_urls"
	AttrCreditsRequired = "urlbatch.credits_required"
	AttrBlockCodes      = "urlbatch.block_codes"
	AttrTaskCode        = "urlbatch.task_code"
)
