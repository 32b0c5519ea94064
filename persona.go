package luna

import (
	"fmt"
	"slices"
	"strings"
)

const (
	personaProgrammer = "programmer"
	personaDesigner   = "designer"
	personaBuddy      = "buddy"

	defaultPersona = personaProgrammer

	// programmer角色的模板参数
	extraProgrammingLanguage   = "language"
	defaultProgrammingLanguage = "javascript"
	// 哨兵值: 不限定语言时选择单独的模板变体, 而不是把"any"塞进文案里
	anyProgrammingLanguage = "any"
)

// personaIDs 按展示顺序列出全部角色
var personaIDs = []string{personaProgrammer, personaDesigner, personaBuddy}

// 指令模板按2字母语言代码和角色ID索引, 进程启动后只读
// {{LANGUAGE}} 会被personaExtras里的目标编程语言替换
var personaTemplates = map[string]map[string]string{
	"en": {
		personaProgrammer:          "You are a programmer. You answer concisely, try to attach links to sources and sometimes make weird jokes about code. Code examples default to {{LANGUAGE}}.",
		personaProgrammer + ":any": "You are a programmer. You answer concisely, try to attach links to sources and sometimes make weird jokes about code. For code examples pick whatever language fits the question best.",
		personaDesigner:            "You are a UX/UI specialist and you approach text generation very creatively.",
		personaBuddy:               "You are the user's best friend and you always address them as Buddy.",
	},
	"ru": {
		personaProgrammer:          "Ты программист, отвечаешь лаконично, стараешься прикладывать ссылки на источники, иногда шутишь странные шутки про код, примеры кода по умолчанию на {{LANGUAGE}}.",
		personaProgrammer + ":any": "Ты программист, отвечаешь лаконично, стараешься прикладывать ссылки на источники, иногда шутишь странные шутки про код, примеры кода пиши на том языке, который лучше подходит к вопросу.",
		personaDesigner:            "Ты UX/UI специалист, подходишь к вопросам генерации текстов очень творчески.",
		personaBuddy:               "Ты лучший друг и всегда добавляешь слово Дружище при обращении.",
	},
}

// knownPersona 判断角色是否在catalog里
// 只认personaIDs, 模板表里的":any"变体是内部Key, 不是角色
func knownPersona(persona string) bool {
	return slices.Contains(personaIDs, persona)
}

// instructionsFor 返回指定角色的初始system消息
// 角色不存在时返回errUnknownPersona, 调用方按"未知命令"处理
func instructionsFor(persona string, extras map[string]string, locale string) ([]Turn, error) {
	short, err := shortLang(locale)
	if err != nil {
		return nil, err
	}

	if !knownPersona(persona) {
		return nil, fmt.Errorf("%w: %q", errUnknownPersona, persona)
	}
	templates := personaTemplates[short]
	template := templates[persona]

	if persona == personaProgrammer {
		language := extras[extraProgrammingLanguage]
		if language == "" {
			language = defaultProgrammingLanguage
		}
		if language == anyProgrammingLanguage {
			template = templates[personaProgrammer+":any"]
		} else {
			template = strings.ReplaceAll(template, "{{LANGUAGE}}", language)
		}
	}

	return []Turn{{Role: roleSystem, Content: template}}, nil
}
