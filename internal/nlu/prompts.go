package nlu

import "fmt"

// IntentClassifierSystemPrompt instructs LLM classifiers to answer with
// exactly one function call.
const IntentClassifierSystemPrompt = `你是「今天吃什麼」LINE 機器人的意圖分類助手。

## 任務
判斷使用者訊息的意圖，並且**只呼叫一個函式**，不要輸出其他文字。

## 可用函式
- **what_to_eat**：想吃東西、找餐廳、肚子餓、問吃什麼
- **welcome**：打招呼、開始對話
- **goodbye**：道別、結束對話
- **fallback**：其他任何情況

## 範例
「肚子好餓」→ what_to_eat
「晚餐吃什麼」→ what_to_eat
「where can I eat」→ what_to_eat
「哈囉」→ welcome
「掰掰」→ goodbye
「今天天氣如何」→ fallback`

// classificationPrompt wraps the user text with its detected language.
func classificationPrompt(q Query) string {
	return fmt.Sprintf("Message language: %s\n\n%s", q.Lang.DisplayName(), q.Text)
}
