// Package voice 把抽象的（文字体系，音色偏好）映射为合成引擎参数，
// 并维护语速档位表。
package voice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iabetor/duotts/internal/script"
)

// Hint 是调用方期望的音色。
type Hint string

const (
	HintAuto   Hint = "auto"
	HintFemale Hint = "female"
	HintMale   Hint = "male"
	// HintHost 成年主持人播报音色。
	HintHost Hint = "host"
)

// ParseHint 解析音色名称，未知值回退为 auto。
func ParseHint(s string) Hint {
	switch h := Hint(strings.ToLower(strings.TrimSpace(s))); h {
	case HintFemale, HintMale, HintHost, HintAuto:
		return h
	}
	return HintAuto
}

// Params 是发给合成引擎的语言参数。
// Region 是 Google 翻译的顶级域名，用不同地区口音来近似不同音色，并非真正的音色选择。
type Params struct {
	Language string `yaml:"language"`
	Region   string `yaml:"region"`
}

type key struct {
	script script.Script
	hint   Hint
}

// DefaultTable 是内置的音色映射表。
var DefaultTable = map[script.Script]map[Hint]Params{
	script.ScriptHan: {
		HintAuto:   {Language: "zh-CN", Region: "com"},
		HintFemale: {Language: "zh-CN", Region: "com"},
		HintMale:   {Language: "zh-TW", Region: "com"},
		HintHost:   {Language: "zh-CN", Region: "com.hk"},
	},
	script.ScriptLatin: {
		HintAuto:   {Language: "en", Region: "com"},
		HintFemale: {Language: "en", Region: "com"},
		HintMale:   {Language: "en", Region: "co.uk"},
		HintHost:   {Language: "en", Region: "com.au"},
	},
}

// Resolver 是纯查表实现的音色解析器，构造后只读，可并发使用。
type Resolver struct {
	table map[key]Params
}

// NewResolver 用内置表创建解析器，overrides 中的条目覆盖内置项。
// overrides 的外层键为 "han" 或 "latin"。
func NewResolver(overrides map[string]map[string]Params) (*Resolver, error) {
	r := &Resolver{table: make(map[key]Params)}
	for s, hints := range DefaultTable {
		for h, p := range hints {
			r.table[key{s, h}] = p
		}
	}
	for name, hints := range overrides {
		s, err := parseScript(name)
		if err != nil {
			return nil, err
		}
		for h, p := range hints {
			if p.Language == "" {
				return nil, fmt.Errorf("[voice] %s/%s 缺少 language", name, h)
			}
			r.table[key{s, Hint(strings.ToLower(h))}] = p
		}
	}
	return r, nil
}

// Resolve 返回指定文字体系和音色的引擎参数。未知音色回退到 auto。
func (r *Resolver) Resolve(s script.Script, h Hint) (Params, error) {
	if p, ok := r.table[key{s, h}]; ok {
		return p, nil
	}
	if p, ok := r.table[key{s, HintAuto}]; ok {
		return p, nil
	}
	return Params{}, fmt.Errorf("[voice] 不支持的文字体系: %s", s)
}

// Entry 是映射表中的一行，用于展示。
type Entry struct {
	Script script.Script
	Hint   Hint
	Params
}

// Entries 按文字体系和音色排序返回全部映射。
func (r *Resolver) Entries() []Entry {
	out := make([]Entry, 0, len(r.table))
	for k, p := range r.table {
		out = append(out, Entry{Script: k.script, Hint: k.hint, Params: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Script != out[j].Script {
			return out[i].Script < out[j].Script
		}
		return out[i].Hint < out[j].Hint
	})
	return out
}

func parseScript(name string) (script.Script, error) {
	switch strings.ToLower(name) {
	case "han", "zh", "chinese":
		return script.ScriptHan, nil
	case "latin", "en", "english":
		return script.ScriptLatin, nil
	}
	return script.ScriptNone, fmt.Errorf("[voice] 未知文字体系 %q", name)
}
