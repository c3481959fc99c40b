package nlu

import "google.golang.org/genai"

// Intent names produced by the Dialogflow agent. The LLM classifiers map
// their function calls onto the same names so callers see one vocabulary.
const (
	IntentNameWhatToEat = "what to eat"
	IntentNameWelcome   = "Default Welcome Intent"
	IntentNameGoodbye   = "goodbye"
	IntentNameFallback  = "Default Fallback Intent"
)

// FunctionIntentMap maps function names to intent names.
var FunctionIntentMap = map[string]string{
	"what_to_eat": IntentNameWhatToEat,
	"welcome":     IntentNameWelcome,
	"goodbye":     IntentNameGoodbye,
	"fallback":    IntentNameFallback,
}

// BuildIntentFunctions returns one parameterless function per intent.
func BuildIntentFunctions() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "what_to_eat",
			Description: "使用者想找東西吃、問附近有什麼餐廳、或不知道要吃什麼。",
		},
		{
			Name:        "welcome",
			Description: "使用者打招呼或開啟對話，例如「嗨」「你好」「hello」。",
		},
		{
			Name:        "goodbye",
			Description: "使用者道別或結束對話，例如「掰掰」「謝謝，再見」「bye」。",
		},
		{
			Name:        "fallback",
			Description: "其他所有訊息：閒聊、離題問題、無法判斷的內容。",
		},
	}
}

// intentFromFunction resolves a function call name.
func intentFromFunction(name string) (string, bool) {
	intent, ok := FunctionIntentMap[name]
	return intent, ok
}
