// Package output 负责把合成结果落盘：生成安全的文件名并原子地分配不冲突的路径。
package output

import (
	"strings"
	"time"
	"unicode"

	"github.com/mozillazg/go-pinyin"

	"github.com/iabetor/duotts/internal/script"
)

// MaxNameRunes 是文件名主干的最大字符数。
const MaxNameRunes = 50

// Sanitizer 把任意文本转换为安全的文件名主干。
type Sanitizer struct {
	// Pinyin 为 true 时把汉字转写为不带声调的拼音，适用于只支持 ASCII 的文件系统。
	Pinyin bool
}

// Sanitize 使用默认 Sanitizer 处理文本。
func Sanitize(text string, now time.Time) string {
	return Sanitizer{}.Sanitize(text, now)
}

// Sanitize 去除文件系统不允许的字符 <>:"/\|?*，把换行和制表符替换为空格，
// 合并连续空白并去除首尾空白，截断到 50 个字符。
// 结果为空或不含任何字母、数字、汉字时返回 tts_YYYYMMDD_HHMMSS。
func (s Sanitizer) Sanitize(text string, now time.Time) string {
	if s.Pinyin {
		text = toPinyin(text)
	}

	var b strings.Builder
	for _, r := range text {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), " ")

	if runes := []rune(name); len(runes) > MaxNameRunes {
		name = strings.TrimSpace(string(runes[:MaxNameRunes]))
	}
	if !hasWordRune(name) {
		return FallbackName(now)
	}
	return name
}

// FallbackName 返回基于时间戳的默认文件名。
func FallbackName(now time.Time) string {
	return "tts_" + now.Format("20060102_150405")
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return true
		}
	}
	return false
}

// toPinyin 把连续的汉字转成首字母大写的拼音（"你好 world" -> "NiHao world"），其余字符保持不变。
// 无法转写的字符保留原样。
func toPinyin(text string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal

	var b strings.Builder
	for _, r := range text {
		if script.Of(r) != script.ScriptHan {
			b.WriteRune(r)
			continue
		}
		py := pinyin.LazyPinyin(string(r), args)
		if len(py) == 0 || py[0] == "" {
			b.WriteRune(r)
			continue
		}
		b.WriteString(strings.ToUpper(py[0][:1]) + py[0][1:])
	}
	return b.String()
}
