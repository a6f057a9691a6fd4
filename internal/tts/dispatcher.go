package tts

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
)

// Dispatcher 为每个片段调用一次引擎，结果按片段顺序返回。
type Dispatcher struct {
	engine      Engine
	timeout     time.Duration
	concurrency int
}

// NewDispatcher 创建调度器。timeout 为单次调用的上限，<=0 表示不限；
// concurrency <=1 时顺序调用。
func NewDispatcher(engine Engine, timeout time.Duration, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{engine: engine, timeout: timeout, concurrency: concurrency}
}

// Engine 返回底层引擎。
func (d *Dispatcher) Engine() Engine { return d.engine }

// Dispatch 合成全部请求。任一请求失败即取消其余调用并返回该 *EngineError，
// 不会返回部分结果。
func (d *Dispatcher) Dispatch(ctx context.Context, reqs []Request) ([]audio.Clip, error) {
	clips := make([]audio.Clip, len(reqs))
	if len(reqs) == 0 {
		return clips, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i := range reqs {
		g.Go(func() error {
			clip, err := d.call(gctx, i, reqs[i])
			if err != nil {
				return err
			}
			clips[i] = clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}

func (d *Dispatcher) call(ctx context.Context, index int, req Request) (audio.Clip, error) {
	if err := ctx.Err(); err != nil {
		return audio.Clip{}, &EngineError{Index: index, Engine: d.engine.Name(), Err: err}
	}
	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	clip, err := d.synthesize(callCtx, req)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) ||
			(errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil)
		return audio.Clip{}, &EngineError{Index: index, Engine: d.engine.Name(), Timeout: timedOut, Err: err}
	}
	logger.Debugf("[tts] 片段 %d 合成完成 (%s, %d 字节, 耗时 %v)",
		index, req.Language, len(clip.Data), time.Since(start).Round(time.Millisecond))
	return clip, nil
}

type synthResult struct {
	clip audio.Clip
	err  error
}

// synthesize 在截止时间到达时立即返回，不等待忽略 ctx 的引擎。
// 超时后才返回的结果被丢弃。
func (d *Dispatcher) synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	done := make(chan synthResult, 1)
	go func() {
		clip, err := d.engine.Synthesize(ctx, req)
		done <- synthResult{clip: clip, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && ctx.Err() != nil {
			return audio.Clip{}, ctx.Err()
		}
		return r.clip, r.err
	case <-ctx.Done():
		return audio.Clip{}, ctx.Err()
	}
}
