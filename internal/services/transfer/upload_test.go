package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/cache"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/xerr"
)

// fakeObjectStore 内存对象存储，记录上传顺序
type fakeObjectStore struct {
	objects     map[string][]byte // objectName -> content
	putOrder    []string
	failAtIndex int // 第 N 次 PutObject 返回错误，-1 表示不失败
	putCalls    int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:     make(map[string][]byte),
		failAtIndex: -1,
	}
}

func (s *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (storage.PutObjectResult, error) {
	defer func() { s.putCalls++ }()
	if s.putCalls == s.failAtIndex {
		return storage.PutObjectResult{}, errors.New("storage unavailable")
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return storage.PutObjectResult{}, err
	}
	s.objects[objectName] = content
	s.putOrder = append(s.putOrder, objectName)
	return storage.PutObjectResult{Bucket: bucketName, Key: objectName, Size: int64(len(content))}, nil
}

func (s *fakeObjectStore) GetObject(ctx context.Context, bucketName, objectName string) (storage.GetObjectResult, error) {
	content, ok := s.objects[objectName]
	if !ok {
		return storage.GetObjectResult{}, fmt.Errorf("object not found: %s", objectName)
	}
	return storage.GetObjectResult{
		Reader: io.NopCloser(bytes.NewReader(content)),
		Size:   int64(len(content)),
	}, nil
}

func (s *fakeObjectStore) RemoveObjects(ctx context.Context, bucketName string, objectNames []string) error {
	for _, name := range objectNames {
		delete(s.objects, name)
	}
	return nil
}

func (s *fakeObjectStore) RemovePrefix(ctx context.Context, bucketName, prefix string) error {
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			delete(s.objects, name)
		}
	}
	return nil
}

func (s *fakeObjectStore) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	return true, nil
}

func (s *fakeObjectStore) MakeBucket(ctx context.Context, bucketName string) error {
	return nil
}

func (s *fakeObjectStore) GetObjectURL(bucketName, objectName string) string {
	return "http://storage.local/" + bucketName + "/" + objectName
}

func (s *fakeObjectStore) PresignGetObjectURL(ctx context.Context, bucketName, objectName, fileName string, expiry time.Duration) (string, error) {
	return "http://storage.local/presigned/" + objectName, nil
}

// memCache 内存缓存，只实现上传进度用到的哈希操作
type memCache struct {
	values map[string][]byte
	hashes map[string]map[string]string
}

func newMemCache() *memCache {
	return &memCache{
		values: make(map[string][]byte),
		hashes: make(map[string]map[string]string),
	}
}

func (c *memCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = data
	return nil
}

func (c *memCache) Get(ctx context.Context, key string, target any) error {
	data, ok := c.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, target)
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
		delete(c.hashes, key)
	}
	return nil
}

func (c *memCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.values[key]
	return ok, nil
}

func (c *memCache) HSet(ctx context.Context, key string, fields map[string]any) error {
	hash, ok := c.hashes[key]
	if !ok {
		hash = make(map[string]string)
		c.hashes[key] = hash
	}
	for k, v := range fields {
		hash[k] = fmt.Sprintf("%v", v)
	}
	return nil
}

func (c *memCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	hash, ok := c.hashes[key]
	if !ok || len(hash) == 0 {
		return nil, cache.ErrCacheMiss
	}
	return hash, nil
}

func (c *memCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

func transferTestConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Type: "minio", PresignedURLExpiry: 15},
		MinIO:   config.MinIOConfig{BucketName: "shareflow"},
	}
}

func staged(name, content string) StagedFile {
	return StagedFile{
		Name:        name,
		Size:        int64(len(content)),
		ContentType: "text/plain",
		Reader:      strings.NewReader(content),
	}
}

func TestUploadAll(t *testing.T) {
	store := newFakeObjectStore()
	svc := NewTransferService(store, newMemCache(), transferTestConfig())

	files := []StagedFile{
		staged("report.pdf", "pdf-content"),
		staged("photo 1.jpg", "jpg-content"),
	}
	uploaded, err := svc.UploadAll(context.Background(), "ABC123", files, "")
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if len(uploaded) != 2 {
		t.Fatalf("应返回 2 个文件，实际 %d", len(uploaded))
	}

	// 返回清单与输入同序，保留原始文件名
	if uploaded[0].Name != "report.pdf" || uploaded[1].Name != "photo 1.jpg" {
		t.Errorf("文件顺序或原始名不正确: %+v", uploaded)
	}

	// 对象路径: <code>/<毫秒时间戳>_<净化后文件名>
	for i, file := range uploaded {
		if !strings.HasPrefix(file.OssKey, "ABC123/") {
			t.Errorf("对象路径应以提取码为前缀: %q", file.OssKey)
		}
		if i == 1 && !strings.HasSuffix(file.OssKey, "_photo_1.jpg") {
			t.Errorf("对象路径应使用净化后的文件名: %q", file.OssKey)
		}
		if _, ok := store.objects[file.OssKey]; !ok {
			t.Errorf("对象 %q 应已写入存储", file.OssKey)
		}
	}

	// 上传顺序与输入一致
	if len(store.putOrder) != 2 || store.putOrder[0] != uploaded[0].OssKey {
		t.Errorf("上传顺序应与输入一致: %v", store.putOrder)
	}
}

func TestUploadAllEmpty(t *testing.T) {
	svc := NewTransferService(newFakeObjectStore(), newMemCache(), transferTestConfig())
	if _, err := svc.UploadAll(context.Background(), "ABC123", nil, ""); !errors.Is(err, xerr.ErrNoFilesStaged) {
		t.Errorf("空文件列表应返回 ErrNoFilesStaged，实际 %v", err)
	}
}

func TestUploadAllAbortOnFailure(t *testing.T) {
	store := newFakeObjectStore()
	store.failAtIndex = 1 // 第二个文件上传失败
	svc := NewTransferService(store, newMemCache(), transferTestConfig())

	files := []StagedFile{
		staged("a.txt", "aaa"),
		staged("b.txt", "bbb"),
		staged("c.txt", "ccc"),
	}
	_, err := svc.UploadAll(context.Background(), "ABC123", files, "")
	if err == nil {
		t.Fatal("单个文件失败应使整个批次失败")
	}
	// 失败时中止，后续文件不再上传
	if store.putCalls != 2 {
		t.Errorf("失败后应立即中止，PutObject 调用次数应为 2，实际 %d", store.putCalls)
	}
}

func TestUploadProgress(t *testing.T) {
	store := newFakeObjectStore()
	svc := NewTransferService(store, newMemCache(), transferTestConfig())

	files := []StagedFile{
		staged("a.txt", "aaa"),
		staged("b.txt", "bbb"),
	}
	if _, err := svc.UploadAll(context.Background(), "ABC123", files, "upload-1"); err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	progress, err := svc.Progress(context.Background(), "upload-1")
	if err != nil {
		t.Fatalf("查询上传进度失败: %v", err)
	}
	if progress.Total != 2 || progress.Done != 2 || progress.Percent != 100 {
		t.Errorf("完成后的进度应为 2/2 100%%，实际 %+v", progress)
	}
}

func TestUploadProgressNotFound(t *testing.T) {
	svc := NewTransferService(newFakeObjectStore(), newMemCache(), transferTestConfig())
	if _, err := svc.Progress(context.Background(), "no-such-upload"); !errors.Is(err, xerr.ErrUploadSessionNotFound) {
		t.Errorf("未知上传会话应返回 ErrUploadSessionNotFound，实际 %v", err)
	}
}

func TestStreamArchive(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["ABC123/1_a.txt"] = []byte("content-a")
	store.objects["ABC123/2_b.txt"] = []byte("content-b")
	svc := NewTransferService(store, newMemCache(), transferTestConfig())

	share := &models.Share{
		Code:      "ABC123",
		CreatedAt: time.Now(),
		Files: []models.ShareFile{
			{Name: "a.txt", Size: 9, OssKey: "ABC123/1_a.txt"},
			{Name: "b.txt", Size: 9, OssKey: "ABC123/2_b.txt"},
		},
	}

	reader := svc.StreamArchive(context.Background(), share)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("读取ZIP流失败: %v", err)
	}

	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ZIP流应可被标准库解析: %v", err)
	}
	if len(zipReader.File) != 2 {
		t.Fatalf("ZIP中应有 2 个文件，实际 %d", len(zipReader.File))
	}

	want := map[string]string{
		"a.txt": "content-a",
		"b.txt": "content-b",
	}
	for _, entry := range zipReader.File {
		expected, ok := want[entry.Name]
		if !ok {
			t.Errorf("ZIP中出现未预期的文件: %q", entry.Name)
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			t.Fatalf("打开ZIP条目 %q 失败: %v", entry.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("读取ZIP条目 %q 失败: %v", entry.Name, err)
		}
		if string(content) != expected {
			t.Errorf("ZIP条目 %q 内容应为 %q，实际 %q", entry.Name, expected, content)
		}
	}
}

func TestStreamArchiveMissingObject(t *testing.T) {
	store := newFakeObjectStore()
	svc := NewTransferService(store, newMemCache(), transferTestConfig())

	share := &models.Share{
		Code:      "ABC123",
		CreatedAt: time.Now(),
		Files: []models.ShareFile{
			{Name: "gone.txt", Size: 4, OssKey: "ABC123/1_gone.txt"},
		},
	}

	reader := svc.StreamArchive(context.Background(), share)
	defer reader.Close()
	if _, err := io.ReadAll(reader); err == nil {
		t.Error("对象缺失时读取ZIP流应返回错误")
	}
}
