package tasks

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq/worker"
)

type stubRepo struct {
	expired []models.Share
	findErr error
}

func (r *stubRepo) Create(share *models.Share) error              { return nil }
func (r *stubRepo) FindByCode(code string) (*models.Share, error) { return nil, nil }
func (r *stubRepo) ExistsByCode(code string) (bool, error)        { return false, nil }
func (r *stubRepo) IncrementDownloads(code string) (bool, error)  { return false, nil }
func (r *stubRepo) Delete(id uint64) error                        { return nil }

func (r *stubRepo) FindExpired(before time.Time, limit int) ([]models.Share, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if len(r.expired) > limit {
		return r.expired[:limit], nil
	}
	return r.expired, nil
}

type recordingPublisher struct {
	messages   map[string][][]byte
	publishErr error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{messages: make(map[string][][]byte)}
}

func (p *recordingPublisher) Publish(queueName string, body []byte) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.messages[queueName] = append(p.messages[queueName], body)
	return nil
}

func sweeperTestConfig() *config.Config {
	return &config.Config{
		Share: config.ShareConfig{SweepCron: "@every 10m"},
	}
}

func expiredShare(id uint64, code string) models.Share {
	return models.Share{
		ID:        id,
		Code:      code,
		ExpiresAt: time.Now().Add(-time.Hour),
		Files: []models.ShareFile{
			{Name: "a.txt", OssKey: code + "/1_a.txt"},
		},
	}
}

func TestSweepExpiredShares(t *testing.T) {
	repo := &stubRepo{expired: []models.Share{
		expiredShare(1, "AAAAAA"),
		expiredShare(2, "BBBBBB"),
	}}
	publisher := newRecordingPublisher()
	s := NewSweeper(repo, publisher, sweeperTestConfig())

	s.SweepExpiredShares()

	published := publisher.messages[worker.PurgeQueueName]
	if len(published) != 2 {
		t.Fatalf("应为每条过期分享投递一个清理任务，实际 %d", len(published))
	}

	var task models.PurgeShareTask
	if err := json.Unmarshal(published[0], &task); err != nil {
		t.Fatalf("清理任务应为合法JSON: %v", err)
	}
	if task.Reason != models.PurgeReasonExpired {
		t.Errorf("清理原因应为 %q，实际 %q", models.PurgeReasonExpired, task.Reason)
	}
	if task.Code != "AAAAAA" || task.ShareID != 1 {
		t.Errorf("任务内容不正确: %+v", task)
	}
	if len(task.ObjectKeys) != 1 || task.ObjectKeys[0] != "AAAAAA/1_a.txt" {
		t.Errorf("任务应携带对象路径，实际 %v", task.ObjectKeys)
	}
}

func TestSweepExpiredSharesEmpty(t *testing.T) {
	publisher := newRecordingPublisher()
	s := NewSweeper(&stubRepo{}, publisher, sweeperTestConfig())

	s.SweepExpiredShares()

	if len(publisher.messages) != 0 {
		t.Errorf("没有过期分享时不应投递任务: %v", publisher.messages)
	}
}

func TestSweepExpiredSharesPublishFailure(t *testing.T) {
	repo := &stubRepo{expired: []models.Share{expiredShare(1, "AAAAAA")}}
	publisher := newRecordingPublisher()
	publisher.publishErr = errors.New("mq down")
	s := NewSweeper(repo, publisher, sweeperTestConfig())

	// 投递失败只记录日志，记录留待下一轮重试
	s.SweepExpiredShares()
}
