// Package pipeline 把分类、切分、音色解析、合成、拼接、变速和落盘串成一个合成任务。
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/history"
	"github.com/iabetor/duotts/internal/logger"
	"github.com/iabetor/duotts/internal/output"
	"github.com/iabetor/duotts/internal/script"
	"github.com/iabetor/duotts/internal/tts"
	"github.com/iabetor/duotts/internal/voice"
)

// logPreviewRunes 是任务开始日志中文本预览的长度。
const logPreviewRunes = 50

// Options 组装 Orchestrator 所需的依赖。
type Options struct {
	Engine      tts.Engine
	Timeout     time.Duration
	Concurrency int

	SpeedTable   voice.SpeedTable
	Resolver     *voice.Resolver
	DefaultVoice voice.Hint

	// Encoder 用于拼接和变速后的重新编码。
	Encoder audio.Encoder

	OutputDir string
	WorkDir   string
	Sanitizer output.Sanitizer

	// History 为 nil 时不记录。
	History *history.Store
	// Now 用于生成默认文件名，测试中可替换。
	Now func() time.Time
}

// Orchestrator 执行合成任务。多个 Run 可以并发执行，任务之间不共享可变状态。
type Orchestrator struct {
	opts       Options
	dispatcher *tts.Dispatcher
	alloc      *output.Allocator
	closers    []func() error
}

// Request 是一次合成请求。Voice 为空时使用默认音色。
type Request struct {
	Text  string
	Speed voice.Level
	Voice string
}

// Result 描述已完成的任务。
type Result struct {
	JobID    string
	Path     string
	Format   audio.Format
	Duration time.Duration
	Class    script.Class
	Runs     int
	Speed    voice.Level
	Factor   float64
	Voice    voice.Hint
	Elapsed  time.Duration
}

// NewOrchestrator 创建任务编排器。
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("[pipeline] 未配置合成引擎")
	}
	if opts.Encoder == nil {
		opts.Encoder = audio.WAVEncoder{}
	}
	if opts.Resolver == nil {
		r, err := voice.NewResolver(nil)
		if err != nil {
			return nil, err
		}
		opts.Resolver = r
	}
	if opts.SpeedTable.Name == "" {
		opts.SpeedTable = voice.Current5
	}
	if opts.DefaultVoice == "" {
		opts.DefaultVoice = voice.HintAuto
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	alloc, err := output.NewAllocator(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		opts:       opts,
		dispatcher: tts.NewDispatcher(opts.Engine, opts.Timeout, opts.Concurrency),
		alloc:      alloc,
	}, nil
}

// Close 释放 New 打开的资源（历史数据库、离线模型）。
func (o *Orchestrator) Close() {
	for _, c := range o.closers {
		if err := c(); err != nil {
			logger.Warnf("[pipeline] 释放资源失败: %v", err)
		}
	}
	o.closers = nil
}

// SpeedTable 返回当前使用的语速表。
func (o *Orchestrator) SpeedTable() voice.SpeedTable { return o.opts.SpeedTable }

// Run 执行一次完整的合成任务并把成品写入输出目录。
// 失败时返回 *JobError，不会产生成品文件。
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	table := o.opts.SpeedTable
	level, ok := table.Normalize(req.Speed)

	hint := o.opts.DefaultVoice
	if req.Voice != "" {
		hint = voice.ParseHint(req.Voice)
	}

	job := newJob(req.Text, level, hint)
	log := logger.With("job_id", job.ID)
	if !ok {
		log.Warnf("[pipeline] 语速档位 %d 超出 %s 范围，按%s处理", req.Speed, table.Name, table.Label(level))
	}
	log.Infof("[pipeline] 开始合成: 文本=%q 语速=%s 音色=%s",
		preview(strings.TrimSpace(req.Text), logPreviewRunes), table.Label(level), hint)

	// 分类与切分
	class, runs, err := script.Plan(job.Text)
	if err != nil {
		return nil, o.fail(log, job, KindClassification, err)
	}
	job.Class, job.Runs = class, runs
	job.state.Transition(StateClassified)
	if class == script.ClassMixed {
		job.state.Transition(StateSegmented)
	}

	for _, run := range runs {
		params, err := o.opts.Resolver.Resolve(run.Script, hint)
		if err != nil {
			return nil, o.fail(log, job, KindClassification, err)
		}
		job.Requests = append(job.Requests, tts.Request{
			Text:     strings.TrimSpace(run.Text),
			Language: params.Language,
			Region:   params.Region,
			Slow:     table.Slow(level),
		})
	}
	log.Debugf("[pipeline] %s 文本，%d 个片段", class, len(runs))

	ws, err := NewWorkspace(o.opts.WorkDir, job.ID)
	if err != nil {
		return nil, o.fail(log, job, KindResource, err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			// 释放失败不影响任务结果
			relErr := &JobError{JobID: job.ID, Kind: KindResource, State: job.State(), Err: err}
			log.Errorf("%v", relErr)
		}
	}()

	// 合成
	job.state.Transition(StateSynthesizing)
	clips, err := o.dispatcher.Dispatch(ctx, job.Requests)
	if err != nil {
		return nil, o.fail(log, job, KindEngine, err)
	}
	job.Clips = clips
	for i, c := range clips {
		if _, err := ws.Spill(fmt.Sprintf("seg-%03d", i), c); err != nil {
			return nil, o.fail(log, job, KindResource, err)
		}
	}

	// 拼接
	final := clips[0]
	if len(clips) > 1 {
		job.state.Transition(StateAssembling)
		final, err = audio.Assemble(ctx, clips, o.opts.Encoder)
		if err != nil {
			return nil, o.fail(log, job, KindAssembly, err)
		}
		if _, err := ws.Spill("assembled", final); err != nil {
			return nil, o.fail(log, job, KindResource, err)
		}
	}

	// 变速
	factor := table.Factor(level)
	if !table.IsNormal(level) {
		job.state.Transition(StateSpeedAdjusting)
		final, err = audio.ChangeSpeed(ctx, final, factor, o.opts.Encoder)
		if err != nil {
			return nil, o.fail(log, job, KindSpeed, err)
		}
	}
	job.Final = final

	// 落盘
	base := o.opts.Sanitizer.Sanitize(job.Text, o.opts.Now())
	path, err := o.alloc.WriteFile(base, final.Format.Ext(), final.Data)
	if err != nil {
		return nil, o.fail(log, job, KindResource, err)
	}
	job.state.Transition(StateComplete)

	res := &Result{
		JobID:    job.ID,
		Path:     path,
		Format:   final.Format,
		Duration: final.Duration,
		Class:    class,
		Runs:     len(runs),
		Speed:    level,
		Factor:   factor,
		Voice:    hint,
		Elapsed:  time.Since(job.started),
	}
	log.Infof("[pipeline] 合成完成: %s (时长 %s, 耗时 %s)",
		path, res.Duration.Round(time.Millisecond), res.Elapsed.Round(time.Millisecond))

	o.record(ctx, log, job, res)
	return res, nil
}

// fail 把任务置为 Failed 并返回 *JobError。
func (o *Orchestrator) fail(log *zap.SugaredLogger, job *SpeechJob, kind ErrorKind, err error) error {
	jobErr := &JobError{JobID: job.ID, Kind: kind, State: job.State(), Err: err}
	job.state.Transition(StateFailed)
	log.Errorf("%v", jobErr)
	return jobErr
}

// record 写入合成记录，失败只记日志。
func (o *Orchestrator) record(ctx context.Context, log *zap.SugaredLogger, job *SpeechJob, res *Result) {
	if o.opts.History == nil {
		return
	}
	err := o.opts.History.Add(ctx, history.Record{
		ID:         job.ID,
		Text:       job.Text,
		Class:      res.Class.String(),
		Runs:       res.Runs,
		SpeedTable: o.opts.SpeedTable.Name,
		SpeedLevel: int(res.Speed),
		Voice:      string(res.Voice),
		Engine:     o.opts.Engine.Name(),
		Path:       res.Path,
		Duration:   res.Duration,
		Elapsed:    res.Elapsed,
	})
	if err != nil {
		log.Warnf("[pipeline] 记录历史失败: %v", err)
	}
}
