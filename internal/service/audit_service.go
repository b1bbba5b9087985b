package service

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoPolymarket/sasgate/internal/model"
	"github.com/GoPolymarket/sasgate/internal/pkg/logger"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	auditFileName      = "audit.jsonl"
	auditFileMaxSizeMB = 100
	auditFileMaxAge    = 30 // days
)

type AuditService struct {
	logChan chan *model.AuditLog
	logFile io.WriteCloser
	buffer  *auditBuffer
	repo    AuditRepo
	done    chan struct{}
	once    sync.Once
}

// AuditRepo is implemented by the Postgres and Redis audit repositories.
type AuditRepo interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, tenantID string, limit int, from, to *time.Time) ([]*model.AuditLog, error)
}

// NewAuditService writes entries to logDir/audit.jsonl (rotated by size,
// compressed, kept for 30 days) and to repo when one is configured. An empty
// logDir disables the file sink.
func NewAuditService(logDir string, bufferSize int, repo AuditRepo) (*AuditService, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	var f io.WriteCloser
	if logDir != "" {
		// lumberjack 延迟创建文件, 这里提前检查目录可写
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}
		f = &lumberjack.Logger{
			Filename: filepath.Join(logDir, auditFileName),
			MaxSize:  auditFileMaxSizeMB,
			MaxAge:   auditFileMaxAge,
			Compress: true,
		}
	}

	svc := &AuditService{
		logChan: make(chan *model.AuditLog, bufferSize),
		logFile: f,
		buffer:  newAuditBuffer(bufferSize),
		repo:    repo,
		done:    make(chan struct{}),
	}

	go svc.processLogs()

	return svc, nil
}

func (s *AuditService) Log(entry *model.AuditLog) {
	if entry == nil {
		return
	}
	s.buffer.Add(entry)
	select {
	case s.logChan <- entry:
	default:
		// 缓冲区满，丢弃日志以保护主流程
		logger.Warn("audit log buffer full, dropping entry", "id", entry.ID)
	}
}

// List prefers the repository and falls back to the in-memory ring buffer.
func (s *AuditService) List(ctx context.Context, tenantID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, tenantID, limit, from, to)
		if err == nil {
			return records, nil
		}
		logger.Warn("audit repo list failed, using memory buffer", "error", err)
	}
	return s.buffer.List(tenantID, limit, from, to), nil
}

func (s *AuditService) processLogs() {
	defer close(s.done)
	var encoder *json.Encoder
	if s.logFile != nil {
		encoder = json.NewEncoder(s.logFile)
	}
	for entry := range s.logChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), entry); err != nil {
				logger.Error("failed to write audit log to repo", "id", entry.ID, "error", err)
			}
		}
		if encoder != nil {
			if err := encoder.Encode(entry); err != nil {
				logger.Error("failed to write audit log file", "id", entry.ID, "error", err)
			}
		}
	}
}

// Close drains queued entries. Log must not be called afterwards.
func (s *AuditService) Close() {
	s.once.Do(func() {
		close(s.logChan)
		<-s.done
		if s.logFile != nil {
			_ = s.logFile.Close()
		}
	})
}

type auditBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.AuditLog
	nextIndex int
}

func newAuditBuffer(maxSize int) *auditBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &auditBuffer{
		maxSize: maxSize,
		records: make([]*model.AuditLog, 0, maxSize),
	}
}

func (b *auditBuffer) Add(entry *model.AuditLog) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, entry)
		return
	}
	b.records[b.nextIndex] = entry
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

// List returns newest entries first.
func (b *auditBuffer) List(tenantID string, limit int, from, to *time.Time) []*model.AuditLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]*model.AuditLog, 0, min(limit, len(b.records)))
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		entry := b.records[idx]
		if tenantID != "" && entry.TenantID != tenantID {
			continue
		}
		if from != nil && entry.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && entry.CreatedAt.After(*to) {
			continue
		}
		results = append(results, entry)
		if len(results) >= limit {
			break
		}
	}
	return results
}
