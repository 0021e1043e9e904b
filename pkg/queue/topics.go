package queue

// 主题命名规范：ns.<域>.<动作>，尽量稳定且向后兼容.
// 域：note(笔记)、quota(下载配额)、user(用户)
// 动作：过去式表示已经发生的事实(uploaded/downloaded/deleted...)

const (
	// 笔记领域.
	TopicNoteUploaded   = "ns.note.uploaded"   // 笔记上传完成，文件已写入存储
	TopicNoteDownloaded = "ns.note.downloaded" // 一次成功的下载（已计数并记账）
	TopicNoteDeleted    = "ns.note.deleted"    // 笔记及其文件被删除
	TopicNoteVerified   = "ns.note.verified"   // 管理员修改了审核标记
	TopicNoteRated      = "ns.note.rated"      // 新增一次评分
	TopicNoteSummarized = "ns.note.summarized" // 生成了摘要

	// 配额领域.
	TopicQuotaExceeded = "ns.quota.exceeded" // 免费用户的下载被配额拒绝

	// 用户领域.
	TopicUserSubscriptionExpired = "ns.user.subscription.expired" // 会员到期被定时任务降级
)

// 通配模式，适用于支持通配的后端（如 NATS）.
const (
	PatternAll  = "ns.>"
	PatternNote = "ns.note.*"
)

// Topics 返回全部已定义主题.
func Topics() []string {
	return []string{
		TopicNoteUploaded,
		TopicNoteDownloaded,
		TopicNoteDeleted,
		TopicNoteVerified,
		TopicNoteRated,
		TopicNoteSummarized,
		TopicQuotaExceeded,
		TopicUserSubscriptionExpired,
	}
}
