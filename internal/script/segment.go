package script

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoLetters 表示文本中既没有汉字也没有英文字母。
var ErrNoLetters = errors.New("文本不包含汉字或英文字母")

// TextRun 是一段同一文字体系的连续文本，附带其后的标点和空白。
type TextRun struct {
	Index  int
	Script Script
	Text   string
}

// Segment 将中英文混合文本按文字体系切分为有序片段。
//
// 单次从左到右扫描：遇到与当前片段不同体系的字母时，把已累积的内容作为一个片段输出；
// 标点、数字、空白总是追加到当前片段，因此分隔符归属于它前面的片段。
// 片段文本不做裁剪，所有片段依次拼接即可还原输入；只含空白的片段会被丢弃。
func Segment(text string) []TextRun {
	var (
		runs   []TextRun
		buf    strings.Builder
		active = ScriptNone
	)

	flush := func() {
		if strings.TrimSpace(buf.String()) != "" {
			runs = append(runs, TextRun{
				Index:  len(runs),
				Script: active,
				Text:   buf.String(),
			})
		}
		buf.Reset()
	}

	for _, r := range text {
		s := Of(r)
		if s != ScriptNone {
			if active != ScriptNone && s != active && strings.TrimSpace(buf.String()) != "" {
				flush()
			}
			active = s
		}
		buf.WriteRune(r)
	}
	if active != ScriptNone {
		flush()
	}
	return runs
}

// Plan 对去除首尾空白后的文本分类并给出待合成的片段。
// 同质文本只返回一个覆盖全文的片段（不经过 Segment），混合文本返回 Segment 的结果。
func Plan(text string) (Class, []TextRun, error) {
	trimmed := strings.TrimSpace(text)
	class := Classify(trimmed)
	switch class {
	case ClassHan, ClassLatin:
		return class, []TextRun{{Index: 0, Script: class.Script(), Text: trimmed}}, nil
	case ClassMixed:
		return class, Segment(trimmed), nil
	}
	return class, nil, fmt.Errorf("[script] %q: %w", truncate(trimmed, 20), ErrNoLetters)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
