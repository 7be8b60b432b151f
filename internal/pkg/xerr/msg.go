package xerr

import "errors"

var (
	// 通用错误
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams      = errors.New("无效的请求参数")
	ErrNoFilesStaged      = errors.New("请至少选择一个要分享的文件")
	ErrInvalidShareCode   = errors.New("请输入有效的6位分享码")
	ErrInvalidExpiry      = errors.New("无效的有效期选项")
	ErrInvalidMaxDownload = errors.New("无效的最大下载次数")
	ErrFileNameInvalid    = errors.New("文件名包含非法字符")

	// 认证与授权错误
	ErrUnauthorized = errors.New("缺少下载令牌")
	ErrTokenInvalid = errors.New("下载令牌无效或已过期")

	// 分享访问校验错误
	// 注意：查找失败和后端错误统一归一为 ErrShareNotFound，不向用户区分具体原因
	ErrShareNotFound          = errors.New("分享码无效或文件已过期")
	ErrSharePasswordRequired  = errors.New("该分享需要提取密码")
	ErrSharePasswordIncorrect = errors.New("提取密码不正确，请重试")
	ErrShareExhausted         = errors.New("该分享已达到下载次数上限")
	ErrShareExpired           = errors.New("该分享已过期")
	ErrShareFileNotFound      = errors.New("分享中不存在该文件")
	ErrUploadSessionNotFound  = errors.New("上传会话不存在或已过期")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("存储服务操作失败")
	ErrMQError       = errors.New("消息队列操作失败")
)
