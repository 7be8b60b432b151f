package models

// 清理任务的触发原因
const (
	PurgeReasonExhausted = "exhausted" // 下载次数耗尽
	PurgeReasonExpired   = "expired"   // 有效期已过
)

// PurgeShareTask 投递到消息队列的分享清理任务
// Worker 先删除存储桶中的对象，再删除数据库记录
type PurgeShareTask struct {
	TaskID     string   `json:"task_id"`
	ShareID    uint64   `json:"share_id"`
	Code       string   `json:"code"`
	ObjectKeys []string `json:"object_keys"`
	Reason     string   `json:"reason"`
}
