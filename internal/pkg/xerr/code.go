package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode       = 40000 // 无效的请求参数
	ValidationFailedCode    = 40001 // 参数验证失败
	NoFilesStagedCode       = 40002 // 未选择任何文件
	InvalidShareCodeCode    = 40003 // 分享码格式无效
	InvalidExpiryCode       = 40004 // 无效的有效期选项
	InvalidMaxDownloadsCode = 40005 // 无效的最大下载次数
	FileNameInvalidCode     = 40006 // 文件名无效

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode = 40100 // 通用未授权
	TokenInvalidCode = 40101 // 下载令牌无效或过期

	// --- 权限错误系列 (403xx) ---
	SharePasswordRequiredCode  = 40302 // 分享需要密码
	SharePasswordIncorrectCode = 40303 // 分享密码不正确
	ShareExhaustedCode         = 40304 // 分享已达到下载次数上限
	ShareExpiredCode           = 40305 // 分享已过期

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode              = 40400 // 通用资源未找到
	ShareNotFoundCode         = 40404 // 分享不存在或已失效
	ShareFileNotFoundCode     = 40405 // 分享中不存在该文件
	UploadSessionNotFoundCode = 40406 // 上传会话不存在

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）
	MQErrorCode             = 50003 // 消息队列操作失败
)
