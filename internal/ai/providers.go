package ai

import "github.com/lexread/lexread/internal/protocol"

// Presets are the selectable provider configurations offered to the
// settings UI. All of them speak the OpenAI chat completion shape except
// Gemini, which uses its native REST API.
var Presets = []protocol.ProviderPreset{
	{
		ID:           "doubao",
		Name:         "豆包 (Doubao)",
		ProviderType: "openai",
		BaseURL:      "https://ark.cn-beijing.volces.com/api/v3",
		ModelName:    "doubao-pro-4k",
		NeedsAPIKey:  true,
	},
	{
		ID:           "qwen",
		Name:         "通义千问 (Qwen)",
		ProviderType: "openai",
		BaseURL:      "https://dashscope.aliyuncs.com/compatible-mode/v1",
		ModelName:    "qwen-turbo",
		NeedsAPIKey:  true,
	},
	{
		ID:           "deepseek",
		Name:         "DeepSeek",
		ProviderType: "openai",
		BaseURL:      "https://api.deepseek.com/v1",
		ModelName:    "deepseek-chat",
		NeedsAPIKey:  true,
	},
	{
		ID:           "openai",
		Name:         "OpenAI",
		ProviderType: "openai",
		BaseURL:      "https://api.openai.com/v1",
		ModelName:    "gpt-3.5-turbo",
		NeedsAPIKey:  true,
	},
	{
		ID:           "gemini",
		Name:         "Google Gemini",
		ProviderType: "gemini",
		ModelName:    "gemini-1.5-flash",
		NeedsAPIKey:  true,
	},
	{
		ID:           "moonshot",
		Name:         "Moonshot (月之暗面)",
		ProviderType: "openai",
		BaseURL:      "https://api.moonshot.cn/v1",
		ModelName:    "moonshot-v1-8k",
		NeedsAPIKey:  true,
	},
	{
		ID:           "zhipu",
		Name:         "智谱 AI (GLM)",
		ProviderType: "openai",
		BaseURL:      "https://open.bigmodel.cn/api/paas/v4",
		ModelName:    "glm-4-flash",
		NeedsAPIKey:  true,
	},
	{
		ID:           "custom",
		Name:         "自定义 (Custom)",
		ProviderType: "openai",
		NeedsAPIKey:  true,
	},
}

// PresetByID returns the preset for a provider id.
func PresetByID(id string) (protocol.ProviderPreset, bool) {
	for _, p := range Presets {
		if p.ID == id {
			return p, true
		}
	}
	return protocol.ProviderPreset{}, false
}
