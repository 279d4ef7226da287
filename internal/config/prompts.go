package config

// 預設 Prompt。分析類 Prompt 要求模型以 BEGIN_ANALYSIS / END_ANALYSIS
// 包住固定欄位格式，解析器依賴這個格式的欄位前綴。

const defaultImagePrompt = `Analyze this product image and provide detailed information in the following format exactly:

BEGIN_ANALYSIS
Product Name: [exact product name]
Category: [main category/subcategory]
Description: [2-3 sentences about the product]
Price: [all visible pricing information]
Key Features:
- [feature 1]
- [feature 2]
- [feature 3]
- [feature 4]
- [feature 5]
Specifications:
- Size: [dimensions if visible]
- Material: [main materials]
- Color: [available colors]
- Weight: [if visible]
Search Keywords:
- [keyword 1]
- [keyword 2]
- [keyword 3]
- [keyword 4]
- [keyword 5]
END_ANALYSIS

Important: Include all visible information and be specific.`

const defaultTextPrompt = `Analyze this product-related text and provide information in the following format exactly:

BEGIN_ANALYSIS
Product Name: [extract or infer product name]
Category: [main category/subcategory]
Description: [2-3 sentences summarizing the product]
Price: [any mentioned pricing]
Key Features:
- [feature 1]
- [feature 2]
- [feature 3]
- [feature 4]
- [feature 5]
Specifications:
- Size: [any mentioned dimensions]
- Material: [mentioned materials]
- Color: [mentioned colors]
- Weight: [if mentioned]
Search Keywords:
- [keyword 1]
- [keyword 2]
- [keyword 3]
- [keyword 4]
- [keyword 5]
END_ANALYSIS

Text to analyze:
`

const defaultFramePrompt = `Analyze this product image and provide a detailed e-commerce style description.
Include:
1. Visual characteristics
2. Notable features
3. Potential uses
4. Any visible technical specifications
Keep the description professional and engaging.`

const defaultFinalDescriptionPrompt = `Based on the following frame descriptions and audio transcription, extract product information in the following format exactly:

BEGIN_ANALYSIS
Product Name: [exact product name]
Category: [main category/subcategory]
Description: [2-3 sentences about the product]
Price: [any mentioned pricing]
Key Features:
- [feature 1]
- [feature 2]
- [feature 3]
- [feature 4]
- [feature 5]
Specifications:
- Size: [dimensions if mentioned]
- Material: [main materials]
- Color: [available colors]
- Weight: [if mentioned]
Search Keywords:
- [keyword 1]
- [keyword 2]
- [keyword 3]
- [keyword 4]
- [keyword 5]
END_ANALYSIS
`

const defaultTranscriptionPrompt = `Transcribe the speech in this audio clip verbatim. Return only the transcription text, with no commentary.`

// DefaultPrompts 回傳內建版本的 Prompt 設定，測試與工具程式可直接取用
func DefaultPrompts() PromptConfig {
	return PromptConfig{
		ImageAnalysis:    singleVersion(defaultImagePrompt),
		TextAnalysis:     singleVersion(defaultTextPrompt),
		FrameAnalysis:    singleVersion(defaultFramePrompt),
		FinalDescription: singleVersion(defaultFinalDescriptionPrompt),
		Transcription:    singleVersion(defaultTranscriptionPrompt),
	}
}

func singleVersion(text string) VersionedPrompt {
	return VersionedPrompt{
		CurrentVersion: "default-v1",
		Versions:       map[string]string{"default-v1": text},
	}
}
