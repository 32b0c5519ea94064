package luna

import "regexp"

type segmentKind int

const (
	segmentText segmentKind = iota
	segmentCode
)

// segment 是assistant回复里的一个连续片段: 普通文本或围栏代码块
type segment struct {
	kind    segmentKind
	content string
}

// 匹配markdown格式的三引号代码块, 非贪婪、跨行、大小写不敏感
var codeFenceRe = regexp.MustCompile("(?is)```(.+?)```")

// segmentReply 把回复按代码围栏切分成有序的片段列表
// 代码片段保留围栏本身; 围栏之间的文本片段哪怕是空串也会产出,
// 由消费方负责跳过. 按下标切片, 所以片段拼接回去就是原文
func segmentReply(reply string) []segment {
	spans := codeFenceRe.FindAllStringIndex(reply, -1)
	if len(spans) == 0 {
		return []segment{{kind: segmentText, content: reply}}
	}

	segments := make([]segment, 0, len(spans)*2+1)
	prev := 0
	for _, span := range spans {
		segments = append(segments,
			segment{kind: segmentText, content: reply[prev:span[0]]},
			segment{kind: segmentCode, content: reply[span[0]:span[1]]},
		)
		prev = span[1]
	}
	segments = append(segments, segment{kind: segmentText, content: reply[prev:]})

	return segments
}
