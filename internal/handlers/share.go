package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/xerr"
	"github.com/3Eeeecho/go-shareflow/internal/services/share"
	"github.com/3Eeeecho/go-shareflow/internal/services/transfer"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShareHandler struct {
	shareService    share.ShareService
	transferService transfer.TransferService
	cfg             *config.Config
}

func NewShareHandler(shareService share.ShareService, transferService transfer.TransferService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{
		shareService:    shareService,
		transferService: transferService,
		cfg:             cfg,
	}
}

type AccessShareRequest struct {
	Password string `json:"password"`
}

// ShareFileView 返回给接收者的单个文件条目，不暴露存储路径
type ShareFileView struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"` // 带下载令牌的下载地址，仅提取成功后填充
}

// ShareDetailsView 分享详情，提取成功之前展示给接收者
type ShareDetailsView struct {
	Code         string    `json:"code"`
	Expiry       string    `json:"expiry"`
	ExpiresAt    time.Time `json:"expires_at"`
	HasPassword  bool      `json:"has_password"`
	FileCount    int       `json:"file_count"`
	TotalSize    int64     `json:"total_size"`
	MaxDownloads *uint32   `json:"max_downloads"`
	Downloads    uint32    `json:"downloads"`
	Message      *string   `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

func newShareDetailsView(record *models.Share) *ShareDetailsView {
	var totalSize int64
	for _, f := range record.Files {
		totalSize += f.Size
	}
	return &ShareDetailsView{
		Code:         record.Code,
		Expiry:       record.Expiry,
		ExpiresAt:    record.ExpiresAt,
		HasPassword:  record.HasPassword(),
		FileCount:    len(record.Files),
		TotalSize:    totalSize,
		MaxDownloads: record.MaxDownloads,
		Downloads:    record.Downloads,
		Message:      record.Message,
		CreatedAt:    record.CreatedAt,
	}
}

func (h *ShareHandler) newShareFileViews(record *models.Share, token string) []ShareFileView {
	views := make([]ShareFileView, 0, len(record.Files))
	for i, f := range record.Files {
		view := ShareFileView{
			Index: i,
			Name:  f.Name,
			Size:  f.Size,
			Type:  f.MimeType,
		}
		if token != "" {
			view.URL = fmt.Sprintf("%s/api/v1/shares/%s/files/%d?token=%s",
				h.cfg.Server.BaseURL, record.Code, i, token)
		}
		views = append(views, view)
	}
	return views
}

// CreateShare handles creation of a new share from staged files.
// @Summary 创建分享
// @Description 上传一批文件并创建分享，返回6位提取码和分享链接，可设置有效期、提取密码和最大下载次数
// @Tags 分享
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "要分享的文件，可多选"
// @Param expiry formData string false "有效期: 10m/1h/6h/24h/7d，默认取服务端配置"
// @Param password formData string false "提取密码，留空表示无密码"
// @Param max_downloads formData string false "最大下载次数，unlimited 或留空表示不限"
// @Param message formData string false "给接收者的留言"
// @Param upload_id formData string false "客户端生成的上传会话ID，用于查询进度"
// @Success 200 {object} xerr.Response "分享创建成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Router /api/v1/shares [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求表单解析失败: "+err.Error())
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.NoFilesStagedCode, xerr.ErrNoFilesStaged.Error())
		return
	}

	expiry := c.PostForm("expiry")
	if expiry == "" {
		expiry = h.cfg.Share.DefaultExpiry
	}
	maxDownloads, err := share.ParseMaxDownloads(c.PostForm("max_downloads"))
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidMaxDownloadsCode, err.Error())
		return
	}

	staged := make([]transfer.StagedFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, fmt.Sprintf("打开上传文件 %s 失败", fh.Filename))
			return
		}
		defer src.Close()

		staged = append(staged, transfer.StagedFile{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Reader:      src,
		})
	}

	input := &share.CreateShareInput{
		Files:        staged,
		Expiry:       expiry,
		Password:     c.PostForm("password"),
		MaxDownloads: maxDownloads,
		Message:      c.PostForm("message"),
		UploadID:     c.PostForm("upload_id"),
	}

	record, err := h.shareService.CreateShare(c.Request.Context(), input)
	if err != nil {
		h.respondShareError(c, "创建分享失败", err)
		return
	}

	// 分享链接形如 <base_url>?code=<CODE>，前端读取 code 参数直达提取页
	shareURL := fmt.Sprintf("%s?code=%s", h.cfg.Server.BaseURL, record.Code)
	xerr.Success(c, http.StatusOK, "分享创建成功", gin.H{
		"code":       record.Code,
		"share_url":  shareURL,
		"expires_at": record.ExpiresAt,
		"files":      h.newShareFileViews(record, ""),
	})
}

// GetShareDetails handles retrieving details of a share.
// @Summary 获取分享详情
// @Description 根据提取码获取分享的概要信息（文件数、总大小、是否需要密码等），不增加下载计数
// @Tags 分享
// @Produce json
// @Param code path string true "6位提取码"
// @Success 200 {object} xerr.Response "分享详情"
// @Failure 404 {object} xerr.Response "分享不存在或已失效"
// @Router /api/v1/shares/{code} [get]
func (h *ShareHandler) GetShareDetails(c *gin.Context) {
	record, err := h.shareService.GetShareByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondShareError(c, "获取分享详情失败", err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取分享详情成功", newShareDetailsView(record))
}

// AccessShare handles the full access validation chain of a share.
// @Summary 提取分享
// @Description 校验提取密码、下载次数和有效期，通过后占用一次下载额度并返回文件清单与下载令牌
// @Tags 分享
// @Accept json
// @Produce json
// @Param code path string true "6位提取码"
// @Param request body AccessShareRequest false "提取密码"
// @Success 200 {object} xerr.Response "提取成功"
// @Failure 403 {object} xerr.Response "密码缺失或不正确"
// @Failure 404 {object} xerr.Response "分享不存在或已失效"
// @Failure 410 {object} xerr.Response "分享已过期或次数耗尽"
// @Router /api/v1/shares/{code}/access [post]
func (h *ShareHandler) AccessShare(c *gin.Context) {
	var req AccessShareRequest
	// body 可为空（无密码分享），解析失败按无密码处理
	_ = c.ShouldBindJSON(&req)

	record, token, err := h.shareService.AccessShare(c.Request.Context(), c.Param("code"), req.Password)
	if err != nil {
		h.respondShareError(c, "提取分享失败", err)
		return
	}

	xerr.Success(c, http.StatusOK, "提取成功", gin.H{
		"share":   newShareDetailsView(record),
		"files":   h.newShareFileViews(record, token),
		"token":   token,
		"message": record.Message,
	})
}

// DownloadShareFile handles downloading a single file from a share.
// @Summary 下载分享中的单个文件
// @Description 凭下载令牌重定向到文件的预签名下载地址
// @Tags 分享
// @Param code path string true "6位提取码"
// @Param index path int true "文件在分享中的序号，从0开始"
// @Param token query string true "提取时返回的下载令牌"
// @Success 302 "重定向到预签名下载地址"
// @Failure 401 {object} xerr.Response "令牌缺失或无效"
// @Failure 404 {object} xerr.Response "分享或文件不存在"
// @Router /api/v1/shares/{code}/files/{index} [get]
func (h *ShareHandler) DownloadShareFile(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的文件序号")
		return
	}

	record, err := h.shareService.GetShareByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondShareError(c, "下载文件失败", err)
		return
	}

	presignedURL, err := h.shareService.GetFilePresignedURL(c.Request.Context(), record, index)
	if err != nil {
		h.respondShareError(c, "下载文件失败", err)
		return
	}
	c.Redirect(http.StatusFound, presignedURL)
}

// DownloadShareArchive handles downloading all files of a share as one ZIP.
// @Summary 打包下载分享
// @Description 凭下载令牌把分享中的全部文件流式打包成一个ZIP下载
// @Tags 分享
// @Produce application/zip
// @Param code path string true "6位提取码"
// @Param token query string true "提取时返回的下载令牌"
// @Success 200 "ZIP文件流"
// @Failure 401 {object} xerr.Response "令牌缺失或无效"
// @Failure 404 {object} xerr.Response "分享不存在或已失效"
// @Router /api/v1/shares/{code}/archive [get]
func (h *ShareHandler) DownloadShareArchive(c *gin.Context) {
	record, err := h.shareService.GetShareByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondShareError(c, "打包下载失败", err)
		return
	}

	reader := h.transferService.StreamArchive(c.Request.Context(), record)
	defer reader.Close()

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, record.Code))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		// 响应头已发出，只能记录日志并断开
		logger.Error("DownloadShareArchive: 写入ZIP流失败",
			zap.String("code", record.Code), zap.Error(err))
	}
}

// GetUploadProgress handles querying the file-level progress of an upload session.
// @Summary 查询上传进度
// @Description 根据上传会话ID查询创建分享时的文件级上传进度
// @Tags 上传
// @Produce json
// @Param upload_id path string true "上传会话ID"
// @Success 200 {object} xerr.Response "上传进度"
// @Failure 404 {object} xerr.Response "上传会话不存在"
// @Router /api/v1/uploads/{upload_id}/progress [get]
func (h *ShareHandler) GetUploadProgress(c *gin.Context) {
	progress, err := h.transferService.Progress(c.Request.Context(), c.Param("upload_id"))
	if err != nil {
		h.respondShareError(c, "查询上传进度失败", err)
		return
	}
	xerr.Success(c, http.StatusOK, "查询上传进度成功", progress)
}

// respondShareError 把服务层的业务错误映射为 HTTP 响应
func (h *ShareHandler) respondShareError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, xerr.ErrNoFilesStaged):
		xerr.Error(c, http.StatusBadRequest, xerr.NoFilesStagedCode, err.Error())
	case errors.Is(err, xerr.ErrInvalidShareCode):
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidShareCodeCode, err.Error())
	case errors.Is(err, xerr.ErrInvalidExpiry):
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidExpiryCode, err.Error())
	case errors.Is(err, xerr.ErrInvalidMaxDownload):
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidMaxDownloadsCode, err.Error())
	case errors.Is(err, xerr.ErrSharePasswordRequired):
		xerr.Error(c, http.StatusForbidden, xerr.SharePasswordRequiredCode, err.Error())
	case errors.Is(err, xerr.ErrSharePasswordIncorrect):
		xerr.Error(c, http.StatusForbidden, xerr.SharePasswordIncorrectCode, err.Error())
	case errors.Is(err, xerr.ErrShareExhausted):
		xerr.Error(c, http.StatusGone, xerr.ShareExhaustedCode, err.Error())
	case errors.Is(err, xerr.ErrShareExpired):
		xerr.Error(c, http.StatusGone, xerr.ShareExpiredCode, err.Error())
	case errors.Is(err, xerr.ErrShareNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrShareFileNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ShareFileNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrUploadSessionNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.UploadSessionNotFoundCode, err.Error())
	default:
		logger.Error(action, zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, action)
	}
}
