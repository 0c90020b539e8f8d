package ai

import "fmt"

// The prompts ask for exactly the output shape the parsers below expect:
// two non-blank lines for a word gloss, a bare translation for text.

func explainPrompt(word, sentence string) string {
	return fmt.Sprintf(`你是一个专业的英语语义分析助手。

请仅根据给定句子中的上下文，
解释单词 "%s" 在该句中的具体含义。

句子：
"%s"

要求：
1. 第一行：仅输出中文含义（如：可持续的），不要包含"中文释义"等前缀。
2. 第二行：仅输出一句话的语境解释，不要包含"语义功能"等前缀。
3. 不要列出其他词义
4. 不要翻译整个句子
5. 严格只输出这两行内容
`, word, sentence)
}

func translatePrompt(text string) string {
	return fmt.Sprintf(`你是一个专业的学术英语翻译助手。

请将以下英文内容准确翻译为中文。

要求：
1. 忠实原意，不要随意扩展
2. 使用学术/正式中文表达
3. 不要添加解释或注释
4. 只输出翻译结果

英文原文：
%s
`, text)
}

const probePrompt = "Reply with the single word OK."
