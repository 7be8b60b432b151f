package transfer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
)

// StreamArchive 把分享中的所有文件打包成一个zip流
// 边读边写，整包不落盘；任何文件读取失败都通过 pipe 传递给调用方
func (s *transferService) StreamArchive(ctx context.Context, share *models.Share) io.ReadCloser {
	pr, pw := io.Pipe()
	bucketName := s.cfg.BucketName()

	go func() {
		zipWriter := zip.NewWriter(pw)
		// 压缩是流式下载的瓶颈，换用 klauspost 的 flate 实现并取最快档位
		zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flate.BestSpeed)
		})

		for _, file := range share.Files {
			if err := s.writeArchiveEntry(ctx, zipWriter, bucketName, share, &file); err != nil {
				pw.CloseWithError(err)
				return
			}
		}

		if err := zipWriter.Close(); err != nil {
			pw.CloseWithError(fmt.Errorf("关闭 ZIP 写入器失败: %w", err))
			return
		}
		pw.Close()
		logger.Info("StreamArchive: ZIP creation finished for share", zap.String("code", share.Code))
	}()

	return pr
}

// writeArchiveEntry 把单个文件从存储读出并写入 ZIP
// 封装成独立函数以保证每个文件的读取器被及时关闭
func (s *transferService) writeArchiveEntry(ctx context.Context, zipWriter *zip.Writer, bucketName string, share *models.Share, file *models.ShareFile) error {
	result, err := s.storage.GetObject(ctx, bucketName, file.OssKey)
	if err != nil {
		logger.Error("StreamArchive: 获取文件内容读取器失败",
			zap.String("code", share.Code),
			zap.String("ossKey", file.OssKey),
			zap.Error(err))
		return fmt.Errorf("获取 %s 内容失败: %w", file.Name, err)
	}
	defer result.Reader.Close()

	header := &zip.FileHeader{
		Name:     file.Name,
		Method:   zip.Deflate,
		Modified: share.CreatedAt, // 文件创建后不可变，使用分享创建时间
	}
	if file.Size > 0 {
		header.UncompressedSize64 = uint64(file.Size)
	}

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("为 %s 创建 ZIP 头失败: %w", file.Name, err)
	}

	if _, err := io.Copy(writer, result.Reader); err != nil {
		return fmt.Errorf("复制 %s 内容到 ZIP 失败: %w", file.Name, err)
	}
	return nil
}
