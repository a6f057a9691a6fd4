// Package script 负责文本的文字体系判定与中英文混合文本的切分。
package script

// Script 表示单个字符所属的文字体系。
type Script int

const (
	// ScriptNone 标点、空白、数字等不参与计数的字符。
	ScriptNone Script = iota
	// ScriptHan 汉字（CJK 统一表意文字基本区）。
	ScriptHan
	// ScriptLatin ASCII 英文字母。
	ScriptLatin
)

func (s Script) String() string {
	switch s {
	case ScriptHan:
		return "Han"
	case ScriptLatin:
		return "Latin"
	default:
		return "None"
	}
}

// Class 是整段文本的分类结果。
type Class int

const (
	// ClassIndeterminate 没有任何汉字或英文字母，不能用于合成。
	ClassIndeterminate Class = iota
	// ClassHan 纯中文。
	ClassHan
	// ClassLatin 纯英文。
	ClassLatin
	// ClassMixed 中英文混合。
	ClassMixed
)

var classNames = [...]string{
	"Indeterminate",
	"Han",
	"Latin",
	"Mixed",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "Unknown"
}

// Script 返回同质文本对应的文字体系，Mixed 和 Indeterminate 返回 ScriptNone。
func (c Class) Script() Script {
	switch c {
	case ClassHan:
		return ScriptHan
	case ClassLatin:
		return ScriptLatin
	}
	return ScriptNone
}

// 汉字码位范围，与常用中文字符集一致。
const (
	hanFirst = '一'
	hanLast  = '鿿'
)

// Of 返回单个字符的文字体系。
func Of(r rune) Script {
	switch {
	case r >= hanFirst && r <= hanLast:
		return ScriptHan
	case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		return ScriptLatin
	}
	return ScriptNone
}

// Counts 统计文本中汉字和英文字母的数量。
func Counts(text string) (han, latin int) {
	for _, r := range text {
		switch Of(r) {
		case ScriptHan:
			han++
		case ScriptLatin:
			latin++
		}
	}
	return han, latin
}

// Classify 判定文本的语言类型。纯函数，无副作用。
func Classify(text string) Class {
	han, latin := Counts(text)
	switch {
	case han > 0 && latin > 0:
		return ClassMixed
	case han > 0:
		return ClassHan
	case latin > 0:
		return ClassLatin
	}
	return ClassIndeterminate
}
