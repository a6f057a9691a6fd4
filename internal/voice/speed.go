package voice

import "fmt"

// Level 是离散的语速档位，只作为查表下标使用。
type Level int

// SpeedTable 是一个版本的语速档位表。
type SpeedTable struct {
	Name    string
	factors []float64
	labels  []string
	normal  Level
	// slowBelow 以下（含）的档位请求引擎慢速朗读。
	slowBelow Level
}

var (
	// Legacy3 旧版三档：慢速、正常、快速。
	Legacy3 = SpeedTable{
		Name:      "legacy3",
		factors:   []float64{0.7, 1.0, 1.3},
		labels:    []string{"慢速", "正常", "快速"},
		normal:    1,
		slowBelow: 0,
	}
	// Current5 当前五档：最慢、慢速、正常、快速、最快。
	Current5 = SpeedTable{
		Name:      "current5",
		factors:   []float64{0.5, 0.7, 1.0, 1.3, 1.6},
		labels:    []string{"最慢", "慢速", "正常", "快速", "最快"},
		normal:    2,
		slowBelow: 1,
	}
)

// LookupTable 按名称返回语速表。
func LookupTable(name string) (SpeedTable, error) {
	switch name {
	case Legacy3.Name:
		return Legacy3, nil
	case Current5.Name, "":
		return Current5, nil
	}
	return SpeedTable{}, fmt.Errorf("[voice] 未知语速表 %q", name)
}

// Levels 返回档位数量。
func (t SpeedTable) Levels() int { return len(t.factors) }

// Normal 返回正常语速档位。
func (t SpeedTable) Normal() Level { return t.normal }

// Valid 判断档位是否在表内。
func (t SpeedTable) Valid(l Level) bool { return l >= 0 && int(l) < len(t.factors) }

// Normalize 把越界档位归为正常语速。
func (t SpeedTable) Normalize(l Level) (Level, bool) {
	if t.Valid(l) {
		return l, true
	}
	return t.normal, false
}

// Factor 返回档位对应的播放速率倍数，越界档位按正常语速处理。
func (t SpeedTable) Factor(l Level) float64 {
	l, _ = t.Normalize(l)
	return t.factors[l]
}

// IsNormal 判断档位是否为不做变速的正常语速。
func (t SpeedTable) IsNormal(l Level) bool {
	l, _ = t.Normalize(l)
	return l == t.normal
}

// Slow 返回是否请求引擎慢速朗读，只有最低的一到两档为 true。
func (t SpeedTable) Slow(l Level) bool {
	l, _ = t.Normalize(l)
	return l <= t.slowBelow
}

// Label 返回档位的中文名称。
func (t SpeedTable) Label(l Level) string {
	l, _ = t.Normalize(l)
	return t.labels[l]
}
