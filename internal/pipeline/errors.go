package pipeline

import "fmt"

// ErrorKind 是任务失败的类别。ErrorKind 本身实现 error，
// 可以直接用 errors.Is(err, KindEngine) 判断类别。
type ErrorKind int

const (
	// KindClassification：文本不含任何可朗读的字母。
	KindClassification ErrorKind = iota + 1
	// KindEngine：合成引擎返回错误、不可达或超时。
	KindEngine
	// KindAssembly：片段无法解码或拼接。
	KindAssembly
	// KindResource：临时目录或输出文件无法创建、写入或释放。
	KindResource
	// KindSpeed：变速失败。
	KindSpeed
)

var kindNames = map[ErrorKind]string{
	KindClassification: "ClassificationError",
	KindEngine:         "EngineError",
	KindAssembly:       "AssemblyError",
	KindResource:       "ResourceError",
	KindSpeed:          "SpeedError",
}

func (k ErrorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "UnknownError"
}

func (k ErrorKind) Error() string { return k.String() }

// JobError 描述任务在哪个阶段、因为什么失败。
type JobError struct {
	JobID string
	Kind  ErrorKind
	// State 是失败时任务所处的阶段。
	State State
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("[pipeline] 任务 %s 在 %s 阶段失败 (%s): %v", e.JobID, e.State, e.Kind, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// Is 让 errors.Is(err, KindXxx) 按类别匹配。
func (e *JobError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}
