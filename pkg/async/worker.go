package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"noticeboard/pkg/logger"
)

// ErrQueueFull 任务队列已满
var ErrQueueFull = errors.New("async: task queue is full")

// ErrStopped 工作器已停止
var ErrStopped = errors.New("async: worker stopped")

// 保留的任务结果数量上限
const maxResults = 1024

// Task 表示一个异步任务
type Task struct {
	ID       string
	Name     string
	Handler  func(ctx context.Context) error
	Timeout  time.Duration
	RetryMax int
}

// Result 表示任务执行结果
type Result struct {
	TaskID    string
	Completed bool
	Error     error
	StartTime time.Time
	EndTime   time.Time
}

// Worker 异步任务处理器
type Worker struct {
	taskQueue chan Task
	results   map[string]Result
	order     []string
	mu        sync.RWMutex
	logger    *logger.Logger
	wg        sync.WaitGroup
	seq       atomic.Uint64
	stopped   atomic.Bool
	stopOnce  sync.Once
	backoff   time.Duration
}

// NewWorker 创建一个新的工作器
func NewWorker(queueSize int, logger *logger.Logger) *Worker {
	return &Worker{
		taskQueue: make(chan Task, queueSize),
		results:   make(map[string]Result),
		logger:    logger,
		backoff:   time.Second,
	}
}

// Start 启动工作器
func (w *Worker) Start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.processTask()
	}
}

// Stop 停止工作器并等待队列中的任务执行完毕
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.stopped.Store(true)
		close(w.taskQueue)
	})
	w.wg.Wait()
}

// Submit 非阻塞地提交任务，队列已满时返回 ErrQueueFull
func (w *Worker) Submit(task Task) (id string, err error) {
	if w.stopped.Load() {
		return "", ErrStopped
	}
	if task.ID == "" {
		task.ID = fmt.Sprintf("task_%d_%d", time.Now().UnixNano(), w.seq.Add(1))
	}
	// Stop 与 Submit 并发时向已关闭的通道发送会 panic
	defer func() {
		if r := recover(); r != nil {
			id, err = "", ErrStopped
		}
	}()
	select {
	case w.taskQueue <- task:
		return task.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// AddTask 提交一个无返回值的简单任务
func (w *Worker) AddTask(name string, handler func(ctx context.Context)) (string, error) {
	return w.Submit(Task{
		Name: name,
		Handler: func(ctx context.Context) error {
			handler(ctx)
			return nil
		},
	})
}

// GetResult 获取任务结果
func (w *Worker) GetResult(taskID string) (Result, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result, exists := w.results[taskID]
	return result, exists
}

// processTask 处理任务的工作循环
func (w *Worker) processTask() {
	defer w.wg.Done()

	for task := range w.taskQueue {
		w.executeTask(task)
	}
}

// executeTask 执行单个任务
func (w *Worker) executeTask(task Task) {
	result := Result{
		TaskID:    task.ID,
		StartTime: time.Now(),
	}

	ctx := context.Background()
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	var err error
	for attempt := 0; attempt <= task.RetryMax; attempt++ {
		if attempt > 0 {
			w.logger.Debug("重试异步任务", "task_id", task.ID, "task", task.Name, "attempt", attempt)
			time.Sleep(w.backoff * time.Duration(attempt))
		}

		err = w.run(ctx, task)
		if err == nil {
			break
		}

		w.logger.Warn("异步任务执行失败", "task_id", task.ID, "task", task.Name, "attempt", attempt, "error", err)
	}

	result.EndTime = time.Now()
	result.Error = err
	result.Completed = err == nil
	w.storeResult(result)

	if err != nil {
		w.logger.Error("异步任务最终失败", "task_id", task.ID, "task", task.Name, "error", err)
	}
}

// run 执行任务处理函数，panic 转换为错误
func (w *Worker) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Handler(ctx)
}

func (w *Worker) storeResult(result Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results[result.TaskID] = result
	w.order = append(w.order, result.TaskID)
	if len(w.order) > maxResults {
		evict := w.order[0]
		w.order = w.order[1:]
		delete(w.results, evict)
	}
}
