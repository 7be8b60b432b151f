package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
	"github.com/streadway/amqp"
)

// fakeAcknowledger 记录消息的确认结果
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

// stubRepo 只关心 Delete 调用
type stubRepo struct {
	deletedIDs []uint64
	deleteErr  error
}

func (r *stubRepo) Create(share *models.Share) error                 { return nil }
func (r *stubRepo) FindByCode(code string) (*models.Share, error)    { return nil, nil }
func (r *stubRepo) ExistsByCode(code string) (bool, error)           { return false, nil }
func (r *stubRepo) IncrementDownloads(code string) (bool, error)     { return false, nil }
func (r *stubRepo) FindExpired(before time.Time, limit int) ([]models.Share, error) {
	return nil, nil
}

func (r *stubRepo) Delete(id uint64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

// stubStorage 记录删除的对象
type stubStorage struct {
	removedKeys     []string
	removedPrefixes []string
	removeErr       error
}

func (s *stubStorage) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (storage.PutObjectResult, error) {
	return storage.PutObjectResult{}, nil
}

func (s *stubStorage) GetObject(ctx context.Context, bucketName, objectName string) (storage.GetObjectResult, error) {
	return storage.GetObjectResult{Reader: io.NopCloser(strings.NewReader(""))}, nil
}

func (s *stubStorage) RemoveObjects(ctx context.Context, bucketName string, objectNames []string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removedKeys = append(s.removedKeys, objectNames...)
	return nil
}

func (s *stubStorage) RemovePrefix(ctx context.Context, bucketName, prefix string) error {
	s.removedPrefixes = append(s.removedPrefixes, prefix)
	return nil
}

func (s *stubStorage) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	return true, nil
}

func (s *stubStorage) MakeBucket(ctx context.Context, bucketName string) error { return nil }

func (s *stubStorage) GetObjectURL(bucketName, objectName string) string { return "" }

func (s *stubStorage) PresignGetObjectURL(ctx context.Context, bucketName, objectName, fileName string, expiry time.Duration) (string, error) {
	return "", nil
}

func workerTestConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Type: "minio"},
		MinIO:   config.MinIOConfig{BucketName: "shareflow"},
	}
}

func deliveryFor(t *testing.T, task models.PurgeShareTask, ack *fakeAcknowledger) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("序列化任务失败: %v", err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestPurgeShare(t *testing.T) {
	repo := &stubRepo{}
	store := &stubStorage{}
	w := NewPurgeWorker(nil, repo, store, workerTestConfig())

	ack := &fakeAcknowledger{}
	task := models.PurgeShareTask{
		TaskID:     "task-1",
		ShareID:    42,
		Code:       "ABC123",
		ObjectKeys: []string{"ABC123/1_a.txt", "ABC123/2_b.txt"},
		Reason:     models.PurgeReasonExhausted,
	}
	w.PurgeShare(deliveryFor(t, task, ack))

	if !ack.acked {
		t.Error("成功处理后应确认消息")
	}
	if len(store.removedKeys) != 2 {
		t.Errorf("应删除 2 个对象，实际 %d", len(store.removedKeys))
	}
	if len(store.removedPrefixes) != 1 || store.removedPrefixes[0] != "ABC123/" {
		t.Errorf("应按前缀兜底清理 ABC123/，实际 %v", store.removedPrefixes)
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != 42 {
		t.Errorf("应删除分享记录 42，实际 %v", repo.deletedIDs)
	}
}

func TestPurgeShareStorageFailureRequeues(t *testing.T) {
	repo := &stubRepo{}
	store := &stubStorage{removeErr: errors.New("storage down")}
	w := NewPurgeWorker(nil, repo, store, workerTestConfig())

	ack := &fakeAcknowledger{}
	w.PurgeShare(deliveryFor(t, models.PurgeShareTask{ShareID: 42, Code: "ABC123", ObjectKeys: []string{"ABC123/1_a.txt"}}, ack))

	if !ack.nacked || !ack.requeue {
		t.Error("对象删除失败应 Nack 并重新入队")
	}
	if len(repo.deletedIDs) != 0 {
		t.Error("对象删除失败时不应删除数据库记录")
	}
}

func TestPurgeShareDBFailureRequeues(t *testing.T) {
	repo := &stubRepo{deleteErr: errors.New("db down")}
	store := &stubStorage{}
	w := NewPurgeWorker(nil, repo, store, workerTestConfig())

	ack := &fakeAcknowledger{}
	w.PurgeShare(deliveryFor(t, models.PurgeShareTask{ShareID: 42, Code: "ABC123"}, ack))

	if !ack.nacked || !ack.requeue {
		t.Error("记录删除失败应 Nack 并重新入队")
	}
}

func TestPurgeShareBadPayloadDropped(t *testing.T) {
	w := NewPurgeWorker(nil, &stubRepo{}, &stubStorage{}, workerTestConfig())

	ack := &fakeAcknowledger{}
	w.PurgeShare(amqp.Delivery{Acknowledger: ack, Body: []byte("not-json")})

	if !ack.nacked || ack.requeue {
		t.Error("非法消息应 Nack 且不重新入队")
	}
}
