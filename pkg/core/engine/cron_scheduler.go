package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
)

// cronParser 支持秒级精度和 @every 等描述符
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule 定时更新任务
type Schedule struct {
	Name     string
	CronExpr string
	Targets  []string // 为空时更新整个图
}

// CronScheduler 定时调度器（对外导出）
// 上一次更新还没结束时跳过本次触发
type CronScheduler struct {
	cron      *cron.Cron
	engine    *Engine
	schedules map[string]*Schedule    // name -> Schedule
	entries   map[string]cron.EntryID // name -> cron.EntryID
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	onResult  func(*Schedule, *RunResult, error)
}

// NewCronScheduler 创建定时调度器（对外导出）
func NewCronScheduler(eng *Engine) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		engine:    eng,
		schedules: make(map[string]*Schedule),
		entries:   make(map[string]cron.EntryID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnResult 设置每次定时更新结束后的回调
func (cs *CronScheduler) OnResult(fn func(*Schedule, *RunResult, error)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.onResult = fn
}

// ValidateCron 校验Cron表达式
func ValidateCron(expr string) error {
	if expr == "" {
		return fmt.Errorf("Cron表达式不能为空")
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("Cron表达式无效: %w", err)
	}
	return nil
}

// Register 注册定时更新（对外导出）
func (cs *CronScheduler) Register(s Schedule) error {
	if s.Name == "" {
		return fmt.Errorf("定时任务名称不能为空")
	}
	if err := ValidateCron(s.CronExpr); err != nil {
		return fmt.Errorf("定时任务 %s: %w", s.Name, err)
	}
	if _, err := cs.engine.Resolve(s.Targets...); err != nil {
		return fmt.Errorf("定时任务 %s: %w", s.Name, err)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.schedules[s.Name]; exists {
		return fmt.Errorf("定时任务 %s 已注册", s.Name)
	}

	sched := s
	sched.Targets = append([]string(nil), s.Targets...)
	entryID, err := cs.cron.AddFunc(s.CronExpr, func() {
		cs.trigger(&sched)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	cs.schedules[s.Name] = &sched
	cs.entries[s.Name] = entryID

	log.Printf("✅ [Cron调度器] 已注册定时更新: Name=%s, CronExpr=%s, 目标=%v", s.Name, s.CronExpr, s.Targets)
	return nil
}

// Unregister 取消注册（对外导出）
func (cs *CronScheduler) Unregister(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entryID, exists := cs.entries[name]
	if !exists {
		return fmt.Errorf("定时任务 %s 未注册", name)
	}
	cs.cron.Remove(entryID)
	delete(cs.schedules, name)
	delete(cs.entries, name)

	log.Printf("✅ [Cron调度器] 已取消注册: Name=%s", name)
	return nil
}

// trigger 执行一次定时更新（内部方法）
func (cs *CronScheduler) trigger(s *Schedule) {
	log.Printf("🕐 [Cron调度器] 触发更新: Name=%s", s.Name)

	result, err := cs.engine.UpdateIDs(cs.ctx, s.Targets...)
	if err != nil {
		log.Printf("❌ [Cron调度器] 更新失败: Name=%s, Error=%v", s.Name, err)
	} else {
		log.Printf("✅ [Cron调度器] 更新完成: Name=%s, RunID=%s", s.Name, result.RunID)
	}

	cs.mu.RLock()
	fn := cs.onResult
	cs.mu.RUnlock()
	if fn != nil {
		fn(s, result, err)
	}
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器，等待正在执行的更新结束（对外导出）
func (cs *CronScheduler) Stop() {
	cs.cancel()
	<-cs.cron.Stop().Done()
	log.Println("✅ [Cron调度器] 已停止")
}

// GetRegistered 获取已注册的定时任务名称（对外导出）
func (cs *CronScheduler) GetRegistered() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	names := make([]string, 0, len(cs.schedules))
	for name := range cs.schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
